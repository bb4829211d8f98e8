package tiburon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed assets/content.yaml
var defaultContent []byte

// Feature is a titled paragraph in the car or service sections.
type Feature struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

// FAQItem is one accordion entry.
type FAQItem struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Business is the data published as schema.org LocalBusiness.
type Business struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Telephone   string `yaml:"telephone"`
	Locality    string `yaml:"locality"`
	Region      string `yaml:"region"`
	Country     string `yaml:"country"`
}

// Content is the copy of the site.
type Content struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Keywords    []string  `yaml:"keywords"`
	Locale      string    `yaml:"locale"`
	HeroTitle   string    `yaml:"heroTitle"`
	HeroText    string    `yaml:"heroText"`
	HeroAlt     string    `yaml:"heroAlt"`
	CarTitle    string    `yaml:"carTitle"`
	CarText     string    `yaml:"carText"`
	Car         []Feature `yaml:"car"`
	ServiceText string    `yaml:"serviceText"`
	Services    []Feature `yaml:"services"`
	GalleryText string    `yaml:"galleryText"`
	FAQ         []FAQItem `yaml:"faq"`
	WhatsApp    string    `yaml:"whatsapp"`
	WhatsAppMsg string    `yaml:"whatsappMessage"`
	Business    Business  `yaml:"business"`
}

// ParseContent decodes site copy.
func ParseContent(bs []byte) (*Content, error) {
	c := &Content{}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if c.Title == "" {
		return nil, fmt.Errorf("content has no title")
	}
	return c, nil
}

// LoadContent reads site copy from path, or the built-in copy when path is empty.
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return ParseContent(defaultContent)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return ParseContent(bs)
}
