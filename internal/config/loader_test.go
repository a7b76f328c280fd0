package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/coldcall/arena/internal/config"
)

func TestNew(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := config.New()

		Convey("Then the service defaults are set", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.RosterSize, ShouldEqual, 6)
			So(cfg.TeamTarget, ShouldEqual, 10000.0)
			So(cfg.UnitValue, ShouldEqual, 500.0)
			So(cfg.CallGoal, ShouldEqual, 20.0)
			So(cfg.ColdCallAverage, ShouldEqual, 40)
			So(cfg.OracleBlendWeight, ShouldEqual, 2)
			So(cfg.QueueSize, ShouldEqual, 4096)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
			So(cfg.DedupeSize, ShouldEqual, 50_000)
			So(cfg.EventLogPath, ShouldEqual, "arena.db")
			So(cfg.TimerMinutes, ShouldEqual, 60)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		ctx := context.Background()
		os.Unsetenv("ARENA_CONFIG")
		for _, key := range []string{"ARENA_ADDR", "ARENA_ROSTER_SIZE", "ARENA_QUEUE_SIZE", "ARENA_LOG_LEVEL"} {
			os.Unsetenv(key)
		}

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(ctx)

			Convey("Then the defaults come back", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9090")
				So(cfg.RosterSize, ShouldEqual, 6)
			})
		})

		Convey("When env vars override defaults", func() {
			os.Setenv("ARENA_ADDR", ":8080")
			os.Setenv("ARENA_QUEUE_SIZE", "128")
			defer os.Unsetenv("ARENA_ADDR")
			defer os.Unsetenv("ARENA_QUEUE_SIZE")

			cfg, err := config.Load(ctx)

			Convey("Then the overridden fields change and the rest stay", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8080")
				So(cfg.QueueSize, ShouldEqual, 128)
				So(cfg.RosterSize, ShouldEqual, 6)
			})
		})

		Convey("When a YAML file is layered in", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "arena.yaml")
			yaml := "addr: \":7070\"\nroster_size: 10\nunit_value: 750\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			os.Setenv("ARENA_CONFIG", path)
			defer os.Unsetenv("ARENA_CONFIG")

			Convey("Then file values override defaults", func() {
				cfg, err := config.Load(ctx)
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.RosterSize, ShouldEqual, 10)
				So(cfg.UnitValue, ShouldEqual, 750.0)
			})

			Convey("And env still wins over the file", func() {
				os.Setenv("ARENA_ADDR", ":6060")
				defer os.Unsetenv("ARENA_ADDR")

				cfg, err := config.Load(ctx)
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.RosterSize, ShouldEqual, 10)
			})
		})

		Convey("When the config file is missing", func() {
			os.Setenv("ARENA_CONFIG", "/does/not/exist.yaml")
			defer os.Unsetenv("ARENA_CONFIG")

			_, err := config.Load(ctx)

			Convey("Then loading fails with a load error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})

		Convey("When validation fails", func() {
			os.Setenv("ARENA_ROSTER_SIZE", "0")
			defer os.Unsetenv("ARENA_ROSTER_SIZE")

			_, err := config.Load(ctx)

			Convey("Then loading fails with an invalid-config error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
