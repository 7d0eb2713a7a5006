package config_test

import (
	"testing"

	"github.com/croply-ai/croply/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should point at the greenhouse and workflow endpoints", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TelemetryURL(), convey.ShouldEqual, "https://oracleapex.com/ords/g3_data/iot/greenhouse/")
			convey.So(cfg.TelemetryTimeout, convey.ShouldEqual, 0)
			convey.So(cfg.InferenceAPIURL, convey.ShouldEqual, "https://serverless.roboflow.com")
			convey.So(cfg.InferenceWorkspace, convey.ShouldEqual, "croply-ai")
			convey.So(cfg.InferenceWorkflow, convey.ShouldEqual, "croply-ai-final-2")
			convey.So(cfg.InferenceUseCache, convey.ShouldBeTrue)
			convey.So(cfg.InferenceImageInput, convey.ShouldEqual, "image")
		})

		convey.Convey("Then machine specific values have no defaults", func() {
			convey.So(cfg.InferenceAPIKey, convey.ShouldBeEmpty)
			convey.So(cfg.ExportModels, convey.ShouldBeEmpty)
		})

		convey.Convey("Then export defaults to quantized tflite through the yolo CLI", func() {
			convey.So(cfg.ExportCommand, convey.ShouldEqual, "yolo")
			convey.So(cfg.ExportFormat, convey.ShouldEqual, "tflite")
			convey.So(cfg.ExportInt8, convey.ShouldBeTrue)
		})
	})
}
