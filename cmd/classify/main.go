// Command classify runs the wayang classifiers over image files from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nvr-ai/wayang/config"
	"github.com/nvr-ai/wayang/images"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/inference/providers"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/nvr-ai/wayang/util"
	"github.com/pkg/errors"
)

type row struct {
	File       string  `json:"file"`
	Model      string  `json:"model"`
	Label      string  `json:"label,omitempty"`
	Confidence float32 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	modelsDir := flag.String("models-dir", "", "directory holding the wayang_*.onnx files (overrides models.dir)")
	modelList := flag.String("model", string(model.DefaultName), "comma separated model ids, or \"all\"")
	asJSON := flag.Bool("json", false, "print one JSON object per line")
	flag.Parse()

	if err := run(*configPath, *modelsDir, *modelList, *asJSON, flag.Args()); err != nil {
		logger.Error("classify", "%v", err)
		os.Exit(1)
	}
}

func run(configPath, modelsDir, modelList string, asJSON bool, paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: classify [flags] <image|dir>...")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if modelsDir != "" {
		cfg.Models.Dir = modelsDir
	}
	level, _ := logger.ParseLevel(cfg.Log.Level)
	logger.Init(level, os.Stderr, cfg.Log.Color)

	names, err := parseModelList(modelList)
	if err != nil {
		return err
	}

	files, err := util.LoadImageFiles(paths...)
	if err != nil {
		return err
	}

	registry := models.NewRegistry(cfg.Models.Dir, inference.NewONNXLoader(cfg.Runtime, cfg.Models.Tensors))
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("classify", "closing models: %v", err)
		}
		if err := providers.DestroyEnvironment(); err != nil {
			logger.Warn("classify", "destroying runtime: %v", err)
		}
	}()
	for _, name := range names {
		if _, err := registry.Get(name); err != nil {
			return err
		}
	}

	classifier := inference.NewClassifier(registry, nil)
	ctx := context.Background()

	var rows []row
	for _, f := range files {
		img, _, decodeErr := images.Decode(f.Data)
		for _, name := range names {
			r := row{File: f.Path, Model: name.String()}
			if decodeErr != nil {
				r.Error = decodeErr.Error()
				rows = append(rows, r)
				continue
			}
			p, err := classifier.Predict(ctx, img, name)
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Label, r.Confidence = p.Label, p.Confidence
			}
			rows = append(rows, r)
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tMODEL\tLABEL\tCONFIDENCE")
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(w, "%s\t%s\terror: %s\t-\n", r.File, r.Model, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f%%\n", r.File, r.Model, r.Label, r.Confidence*100)
	}
	return w.Flush()
}

func parseModelList(s string) ([]model.Name, error) {
	if strings.TrimSpace(s) == "all" {
		return model.Names(), nil
	}
	var names []model.Name
	seen := make(map[model.Name]bool)
	for _, part := range strings.Split(s, ",") {
		name, err := model.ParseName(part)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}
