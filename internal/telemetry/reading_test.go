package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func decode(s string) any {
	v, err := DecodePayload([]byte(s))
	So(err, ShouldBeNil)
	return v
}

func TestNormalize(t *testing.T) {
	Convey("Given decoded payloads", t, func() {
		Convey("When the payload is an envelope", func() {
			readings, shape, err := Normalize(decode(`{"items":[{"humidity":55},{"humidity":56}],"count":2}`))

			Convey("Then the items list is used", func() {
				So(err, ShouldBeNil)
				So(shape, ShouldEqual, ShapeEnvelope)
				So(readings, ShouldHaveLength, 2)
				So(readings[1]["humidity"], ShouldEqual, json.Number("56"))
			})
		})

		Convey("When the envelope items are null", func() {
			readings, shape, err := Normalize(decode(`{"items":null}`))

			Convey("Then the result is an empty list", func() {
				So(err, ShouldBeNil)
				So(shape, ShouldEqual, ShapeEnvelope)
				So(readings, ShouldBeEmpty)
			})
		})

		Convey("When the envelope items are not a list", func() {
			_, _, err := Normalize(decode(`{"items":"nope"}`))

			Convey("Then the format is rejected", func() {
				So(errors.Is(err, ErrUnexpectedFormat), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "string at items")
			})
		})

		Convey("When the payload is a single object", func() {
			readings, shape, err := Normalize(decode(`{"pressure": 1013.2}`))

			So(err, ShouldBeNil)
			So(shape, ShouldEqual, ShapeSingle)
			So(readings, ShouldHaveLength, 1)
		})

		Convey("When a list holds a non-object", func() {
			_, shape, err := Normalize(decode(`[{"humidity":1}, 7]`))

			So(shape, ShouldEqual, ShapeList)
			So(errors.Is(err, ErrUnexpectedFormat), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "number at element 1")
		})

		Convey("When the payload is a scalar", func() {
			for body, kind := range map[string]string{`42`: "number", `"x"`: "string", `true`: "boolean", `null`: "null"} {
				_, shape, err := Normalize(decode(body))
				So(shape, ShouldEqual, ShapeUnknown)
				So(err.Error(), ShouldEqual, "Unexpected data format: "+kind)
			}
		})
	})
}

func TestDecodePayload(t *testing.T) {
	Convey("Given raw bodies", t, func() {
		Convey("When the body has trailing garbage", func() {
			_, err := DecodePayload([]byte(`{"a":1} }`))
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})

		Convey("When the body is empty", func() {
			_, err := DecodePayload(nil)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})

		Convey("When the body has trailing whitespace", func() {
			_, err := DecodePayload([]byte("[]\n"))
			So(err, ShouldBeNil)
		})
	})
}

func TestPrinter(t *testing.T) {
	Convey("Given a printer in UTC", t, func() {
		var buf bytes.Buffer
		p := NewPrinter(&buf, time.UTC)

		Convey("When printing a full reading", func() {
			p.PrintReading(3, Reading(decode(`{
				"timestamp": 1700000000.25,
				"temperature_bmp280": 21.5, "temperature_dht22": 22,
				"humidity": 55, "pressure": 1013.25, "altitude": 12.3,
				"light_raw": 812, "light_percent": 79.3,
				"flame_raw": 1023, "flame_detected": 0,
				"mq135_raw": 400, "mq135_baseline": 410, "mq135_drop": 10,
				"mq2_raw": 300, "mq2_baseline": 300, "mq2_drop": 0,
				"mq7_raw": 120, "mq7_baseline": 130, "mq7_drop": 10,
				"firmware": "1.4.2"
			}`).(map[string]any)))

			Convey("Then every known field is printed in fixed order", func() {
				expected := strings.Join([]string{
					"",
					"Reading #3:",
					"Time: 2023-11-14 22:13:20.250000",
					"Temperature (BMP280): 21.5°C",
					"Temperature (DHT22): 22°C",
					"Humidity: 55%",
					"Pressure: 1013.25 hPa",
					"Altitude: 12.3 m",
					"Light (raw): 812",
					"Light (%): 79.3%",
					"Flame (raw): 1023",
					"Flame detected: No",
					"Air Quality (MQ135)",
					"  Raw: 400",
					"  Baseline: 410",
					"  Drop: 10",
					"Flammable Gas (MQ2)",
					"  Raw: 300",
					"  Baseline: 300",
					"  Drop: 0",
					"Carbon Monoxide (MQ7)",
					"  Raw: 120",
					"  Baseline: 130",
					"  Drop: 10",
					"",
				}, "\n")
				So(buf.String(), ShouldEqual, expected)
			})

			Convey("Then unknown keys are not displayed", func() {
				So(buf.String(), ShouldNotContainSubstring, "firmware")
				So(buf.String(), ShouldNotContainSubstring, "1.4.2")
			})
		})

		Convey("When a gas triple is incomplete", func() {
			p.PrintReading(1, Reading{"mq7_raw": json.Number("99")})

			Convey("Then missing parts are shown as n/a", func() {
				So(buf.String(), ShouldContainSubstring, "Carbon Monoxide (MQ7)\n  Raw: 99\n  Baseline: n/a\n  Drop: n/a\n")
			})
		})

		Convey("When only a baseline is present", func() {
			p.PrintReading(1, Reading{"mq2_baseline": json.Number("300")})

			Convey("Then the sensor block is skipped", func() {
				So(buf.String(), ShouldNotContainSubstring, "MQ2")
			})
		})

		Convey("When the timestamp is a string", func() {
			p.PrintReading(1, Reading{"timestamp": "2024-05-01T10:00:00Z", "timestamp_reading": "ignored"})

			Convey("Then it is printed as-is and wins over timestamp_reading", func() {
				So(buf.String(), ShouldContainSubstring, "Time: 2024-05-01T10:00:00Z")
				So(buf.String(), ShouldNotContainSubstring, "ignored")
			})
		})

		Convey("When the numeric timestamp is outside any calendar range", func() {
			p.PrintReading(1, Reading{"timestamp": json.Number("1e20")})

			Convey("Then it is printed as received instead of a wrapped date", func() {
				So(buf.String(), ShouldContainSubstring, "Time: 1e20\n")
			})
		})

		Convey("When flame_detected uses loose values", func() {
			for v, want := range map[string]string{`true`: "Yes", `1`: "Yes", `"yes"`: "Yes", `false`: "No", `0`: "No", `""`: "No", `null`: "No"} {
				buf.Reset()
				p.PrintReading(1, Reading{"flame_detected": decode(v)})
				So(buf.String(), ShouldContainSubstring, "Flame detected: "+want)
			}
		})
	})
}

func TestShapeString(t *testing.T) {
	Convey("Given shapes", t, func() {
		So(ShapeEnvelope.String(), ShouldEqual, "envelope")
		So(ShapeSingle.String(), ShouldEqual, "single")
		So(ShapeList.String(), ShouldEqual, "list")
		So(ShapeUnknown.String(), ShouldEqual, "unknown")
	})
}
