package shader

import (
	"fmt"
	"log"

	"github.com/richinsley/gofboview/translator"
	gst "github.com/richinsley/goshadertranslator"
)

// Uniform names used by the blit fragment shader.
const (
	TextureUniform    = "u_texture"
	ResolutionUniform = "u_resolution"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceGL = `#version 410 core
out vec4 fragColor;
uniform sampler2D u_texture;
uniform vec2 u_resolution;
void main() { fragColor = texture(u_texture, gl_FragCoord.xy / u_resolution); }
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
void main() {
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceGLES = `#version 300 es
precision mediump float;
out vec4 fragColor;
uniform sampler2D u_texture;
uniform vec2 u_resolution;
void main() { fragColor = texture(u_texture, gl_FragCoord.xy / u_resolution); }
`

// ──────────────────────────────────── WebGL2 ────────────────────────────────────

// blitFragmentShaderSourceWebGL2 is the portable source handed to the
// translator. The full-viewport quad maps gl_FragCoord over the viewport to
// texture coordinates corner to corner.
const blitFragmentShaderSourceWebGL2 = `#version 300 es
precision highp float;
out vec4 fragColor;
uniform sampler2D u_texture;
uniform vec2 u_resolution;
void main()
{
    fragColor = texture(u_texture, gl_FragCoord.xy / u_resolution);
}
`

// ────────────────────────────────── Public API ─────────────────────────────────

// Blit holds the sources of the texture blit program and the names its
// uniforms have in the compiled fragment shader.
type Blit struct {
	Vertex     string
	Fragment   string
	Texture    string
	Resolution string
	Translated bool
}

func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

// GetBlitFragmentShader returns the hand-written blit fragment shader.
func GetBlitFragmentShader(isGLES bool) string {
	if isGLES {
		return blitFragmentShaderSourceGLES
	}
	return blitFragmentShaderSourceGL
}

// Static returns the blit program built from the hand-written sources.
func Static(isGLES bool) *Blit {
	return &Blit{
		Vertex:     GenerateVertexShader(isGLES),
		Fragment:   GetBlitFragmentShader(isGLES),
		Texture:    TextureUniform,
		Resolution: ResolutionUniform,
	}
}

// NewBlit translates the WebGL2 blit shader for the context type. If the
// translator is unavailable the hand-written sources are used instead.
func NewBlit(isGLES bool) *Blit {
	b, err := translateBlit(isGLES)
	if err != nil {
		log.Printf("Shader translation unavailable, using built-in blit shader: %v", err)
		return Static(isGLES)
	}
	return b
}

func translateBlit(isGLES bool) (*Blit, error) {
	t, err := translator.GetTranslator()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}
	outputFormat := gst.OutputFormatGLSL410
	if isGLES {
		outputFormat = gst.OutputFormatESSL
	}
	fsShader, err := t.TranslateShader(blitFragmentShaderSourceWebGL2, "fragment", gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	b := &Blit{
		Vertex:     GenerateVertexShader(isGLES),
		Fragment:   fsShader.Code,
		Texture:    TextureUniform,
		Resolution: ResolutionUniform,
		Translated: true,
	}
	if v, ok := fsShader.Variables[TextureUniform]; ok {
		b.Texture = v.MappedName
	}
	if v, ok := fsShader.Variables[ResolutionUniform]; ok {
		b.Resolution = v.MappedName
	}
	return b, nil
}
