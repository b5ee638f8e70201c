package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/nvr-ai/wayang/config"
	"github.com/nvr-ai/wayang/controller"
	"github.com/nvr-ai/wayang/images/cv"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/models"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// keyModels maps number keys to model selections.
var keyModels = map[int]model.Name{
	'1': model.ModelNameEfficientNetV2S,
	'2': model.ModelNameMobileNetV3Large,
	'3': model.ModelNameDeiTSmall,
}

const keyEsc = 27

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	modelsDir := flag.String("models-dir", "", "directory holding the wayang_*.onnx files (overrides models.dir)")
	deviceID := flag.Int("device", -1, "video capture device (overrides live.camera)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("webcam", "%v", err)
		os.Exit(1)
	}
	if *modelsDir != "" {
		cfg.Models.Dir = *modelsDir
	}
	if *deviceID >= 0 {
		cfg.Live.Camera = *deviceID
	}
	level, _ := logger.ParseLevel(cfg.Log.Level)
	logger.Init(level, os.Stderr, cfg.Log.Color)

	registry := models.NewRegistry(cfg.Models.Dir, inference.NewONNXLoader(cfg.Runtime, cfg.Models.Tensors))
	defer registry.Close()
	if err := registry.LoadAll(); err != nil {
		logger.Error("webcam", "%v", err)
		os.Exit(1)
	}

	opts := controller.DefaultOptions()
	opts.Model = cfg.Live.DefaultModel
	session, err := controller.NewSession(inference.NewClassifier(registry, nil), opts)
	if err != nil {
		logger.Error("webcam", "%v", err)
		os.Exit(1)
	}

	if err := run(session, cfg.Live.Camera); err != nil {
		logger.Error("webcam", "%v", err)
		os.Exit(1)
	}
}

func run(session *controller.Session, deviceID int) error {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return err
	}
	defer webcam.Close()

	window := gocv.NewWindow("Klasifikasi Wayang")
	defer window.Close()

	img := gocv.NewMat()
	defer img.Close()

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	logger.Info("webcam", "reading camera device %d; keys 1/2/3 switch model, q or Esc quits", deviceID)
	for {
		if ok := webcam.Read(&img); !ok {
			return errors.Errorf("cannot read device %d", deviceID)
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
			logger.Debug("webcam", "%s | FPS: %.2f", session.Model(), fps)
		}

		frame, err := cv.MatToImage(img)
		if err != nil {
			logger.Warn("webcam", "%v", err)
			continue
		}

		result := session.ProcessImage(context.Background(), frame)

		out, err := cv.ImageToMat(result.Annotated)
		if err != nil {
			logger.Warn("webcam", "%v", err)
			continue
		}
		window.IMShow(out)
		out.Close()

		key := window.WaitKey(1)
		switch {
		case key == 'q' || key == keyEsc:
			return nil
		case keyModels[key] != "":
			if err := session.SetModel(keyModels[key]); err != nil {
				logger.Warn("webcam", "%v", err)
			}
		}
	}
}
