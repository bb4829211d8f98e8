package tiburon

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// AltThumb specifies which thumbnail is sent for alt text generation.
var AltThumb = TileThumb

var altPrompt = "Escribe un texto alternativo (atributo alt) en español, de una sola frase y menos de 120 caracteres, " +
	"para esta foto de un Citroën DS 23 Pallas 'Tiburón' en una boda. Describe lo que se ve: el coche, " +
	"los novios, el lugar o el momento del día. No empieces con 'Imagen de' ni 'Foto de'. " +
	"Responde solo con el texto, sin comillas."

// AltText asks a generative model for a short alt text describing p.
func AltText(ctx context.Context, client *genai.Client, model string, p *Photo) (string, error) {
	path := p.InPath
	if t, ok := p.Resize[AltThumb]; ok && t.Path != "" {
		path = t.Path
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(bs, "image/jpeg"),
		genai.NewPartFromText(altPrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	alt := strings.Trim(strings.TrimSpace(resp.Text()), `"'`)
	if alt == "" {
		return "", fmt.Errorf("empty response for %s", p.Filename)
	}
	return alt, nil
}
