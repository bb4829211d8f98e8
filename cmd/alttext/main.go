// alttext writes suggested alt texts into JPEG descriptions using Gemini.
package main

import (
	"context"
	"flag"
	"os"

	_ "image/jpeg"

	"github.com/barasher/go-exiftool"
	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/tiburon"
)

var (
	dryRun    = flag.Bool("n", false, "dry-run mode, don't write descriptions")
	overwrite = flag.Bool("o", false, "overwrite existing descriptions")
	inDir     = flag.String("in", "", "Location of input photo directory")
	outDir    = flag.String("out", "", "Location of output directory for thumbnails")
	model     = flag.String("model", "gemini-2.5-flash", "model to ask")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *inDir == "" || *outDir == "" {
		klog.Exitf("usage: %s -in <photo_dir> -out <output_dir>", os.Args[0])
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_AI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		klog.Exitf("genai: %v", err)
	}

	c := &tiburon.Config{InDir: *inDir, OutDir: *outDir}
	s, err := tiburon.Collect(c)
	if err != nil {
		klog.Exitf("unable to collect: %v", err)
	}
	klog.Infof("found %d photos", len(s.Photos))

	e, err := exiftool.NewExiftool()
	if err != nil {
		klog.Exitf("exiftool: %v", err)
	}
	defer func() {
		if err := e.Close(); err != nil {
			klog.Errorf("failed to close exiftool: %v", err)
		}
	}()

	written := 0
	for _, p := range s.Photos {
		if !*overwrite && p.Description != "" {
			klog.Infof("%s has a description: %q", p.InPath, p.Description)
			continue
		}

		alt, err := tiburon.AltText(ctx, client, *model, p)
		if err != nil {
			klog.Errorf("%s: %v", p.InPath, err)
			continue
		}

		klog.Infof("%s: %q", p.InPath, alt)
		if *dryRun {
			continue
		}

		o := e.ExtractMetadata(p.InPath)
		o[0].SetString("ImageDescription", alt)
		e.WriteMetadata(o)
		if o[0].Err != nil {
			klog.Errorf("failed to write metadata for %s: %v", p.InPath, o[0].Err)
			continue
		}
		written++
	}

	klog.Infof("alttext completed: %d of %d photos updated", written, len(s.Photos))
}
