package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gobeaver/imgconvert"
	"github.com/gobeaver/imgconvert/filevalidator"
	"github.com/gobeaver/imgconvert/hotfolder"
	"github.com/gobeaver/imgconvert/pipeline"
	"github.com/gobeaver/imgconvert/sniffer"
)

const (
	VerboseFlag    = "verbose"
	FormatFlag     = "format"
	QualityFlag    = "quality"
	WidthFlag      = "width"
	HeightFlag     = "height"
	KeepAspectFlag = "keep-aspect"
	OutFlag        = "out"
	PresetFlag     = "preset"
	PresetsFlag    = "presets"
	InFlag         = "in"
)

var logger *zap.Logger

func main() {
	app := &cli.App{
		Name:  "imgconvert",
		Usage: "Inspect, validate and convert raster images",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    VerboseFlag,
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(cCtx *cli.Context) error {
			cfg, err := imgconvert.GetConfig()
			if err != nil {
				return err
			}
			if cCtx.Bool(VerboseFlag) {
				cfg.LogLevel = "debug"
			}
			logger, err = imgconvert.NewLogger(cfg)
			return err
		},
		After: func(cCtx *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "sniff",
				Usage:     "Detect the real format of files from their content",
				ArgsUsage: "FILE...",
				Action:    sniffAction,
			},
			{
				Name:      "validate",
				Usage:     "Run the upload checks against a file",
				ArgsUsage: "FILE",
				Action:    validateAction,
			},
			{
				Name:      "convert",
				Usage:     "Convert an image to another format and size",
				ArgsUsage: "FILE",
				Flags:     append(settingsFlags(), &cli.StringFlag{Name: OutFlag, Aliases: []string{"o"}, Usage: "Output file or directory"}),
				Action:    convertAction,
			},
			{
				Name:   "formats",
				Usage:  "List the output formats this build can encode",
				Action: formatsAction,
			},
			{
				Name:  "watch",
				Usage: "Convert every image dropped into a folder",
				Flags: append(settingsFlags(),
					&cli.StringFlag{Name: InFlag, Usage: "Folder to watch", Required: true},
					&cli.StringFlag{Name: OutFlag, Aliases: []string{"o"}, Usage: "Folder to write conversions to", Required: true},
				),
				Action: watchAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if logger != nil {
			logger.Fatal("imgconvert failed", zap.Error(err))
		}
		log.Fatal(err)
	}
}

func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FormatFlag, Aliases: []string{"f"}, Usage: "Target format, e.g. webp or image/jpeg"},
		&cli.Float64Flag{Name: QualityFlag, Aliases: []string{"q"}, Usage: "Quality between 0 and 1 for lossy formats"},
		&cli.IntFlag{Name: WidthFlag, Usage: "Target width in pixels"},
		&cli.IntFlag{Name: HeightFlag, Usage: "Target height in pixels"},
		&cli.BoolFlag{Name: KeepAspectFlag, Usage: "Derive a missing side from the source aspect ratio"},
		&cli.StringFlag{Name: PresetFlag, Aliases: []string{"p"}, Usage: "Named preset to start from"},
		&cli.StringFlag{Name: PresetsFlag, Value: "presets.yaml", Usage: "YAML file holding presets"},
	}
}

// settingsFrom starts from the config defaults, applies a preset if one is
// named and then any flags that were set explicitly.
func settingsFrom(cCtx *cli.Context, conv *imgconvert.Converter) (pipeline.Settings, error) {
	cfg := conv.Config()
	s := cfg.DefaultSettings()

	if name := cCtx.String(PresetFlag); name != "" {
		presets, err := LoadPresets(cCtx.String(PresetsFlag))
		if err != nil {
			return s, err
		}
		preset, err := presets.Lookup(name)
		if err != nil {
			return s, err
		}
		s = preset.Settings()
		if s.Format == "" {
			s.Format = cfg.DefaultFormat
		}
	}

	if cCtx.IsSet(FormatFlag) {
		s.Format = cCtx.String(FormatFlag)
	}
	if cCtx.IsSet(QualityFlag) {
		s.Quality = cCtx.Float64(QualityFlag)
	}
	if cCtx.IsSet(WidthFlag) {
		s.Width = cCtx.Int(WidthFlag)
	}
	if cCtx.IsSet(HeightFlag) {
		s.Height = cCtx.Int(HeightFlag)
	}
	if cCtx.IsSet(KeepAspectFlag) {
		s.MaintainAspectRatio = cCtx.Bool(KeepAspectFlag)
	}
	return s, nil
}

func newConverter() (*imgconvert.Converter, error) {
	return imgconvert.NewFromEnv(imgconvert.WithLogger(logger))
}

func sniffAction(cCtx *cli.Context) error {
	if cCtx.NArg() == 0 {
		return cli.Exit("sniff needs at least one file", 2)
	}

	for _, path := range cCtx.Args().Slice() {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		res := sniffer.Detect(cCtx.Context, f)
		f.Close()

		if res == nil {
			fmt.Fprintf(cCtx.App.Writer, "%s: unknown\n", path)
			continue
		}
		fmt.Fprintf(cCtx.App.Writer, "%s: %s (%s)\n", path, res.MIMEType, res.DisplayName)
	}
	return nil
}

func validateAction(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.Exit("validate needs exactly one file", 2)
	}
	conv, err := newConverter()
	if err != nil {
		return err
	}

	file, err := filevalidator.OpenFile(cCtx.Args().First())
	if err != nil {
		return err
	}

	verdict := conv.ValidateWithSignature(cCtx.Context, file)
	if !verdict.Valid {
		return cli.Exit(fmt.Sprintf("%s: rejected: %s", file.Name, verdict.Error), 1)
	}

	fmt.Fprintf(cCtx.App.Writer, "%s: ok (%s)\n", file.Name, sniffer.DisplayName(verdict.EffectiveType()))
	if verdict.HasWarning() {
		fmt.Fprintf(cCtx.App.Writer, "  warning: %s\n", verdict.Warning)
	}
	return nil
}

func convertAction(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.Exit("convert needs exactly one file", 2)
	}
	conv, err := newConverter()
	if err != nil {
		return err
	}

	settings, err := settingsFrom(cCtx, conv)
	if err != nil {
		return err
	}

	src := cCtx.Args().First()
	file, err := filevalidator.OpenFile(src)
	if err != nil {
		return err
	}

	artifact, verdict, err := conv.ConvertFile(cCtx.Context, file, settings)
	if err != nil {
		return err
	}
	defer conv.Store().Release(artifact.ID)

	if verdict.HasWarning() {
		fmt.Fprintf(cCtx.App.ErrWriter, "warning: %s\n", verdict.Warning)
	}

	dst := outputPath(src, cCtx.String(OutFlag), artifact.Name)
	if sameFile(src, dst) {
		return cli.Exit(fmt.Sprintf("refusing to overwrite the source %s; pass --out", src), 1)
	}

	rc, err := conv.Store().Open(artifact.ID)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cCtx.App.Writer, "%s -> %s (%dx%d, %s)\n", src, dst, artifact.Width, artifact.Height,
		filevalidator.FormatSizeReadable(artifact.Size))
	return nil
}

// outputPath resolves --out: empty writes next to the source, an existing
// directory receives name, anything else is used as the file path.
func outputPath(src, out, name string) string {
	if out == "" {
		return filepath.Join(filepath.Dir(src), name)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func formatsAction(cCtx *cli.Context) error {
	conv, err := newConverter()
	if err != nil {
		return err
	}

	for _, f := range conv.OutputFormats() {
		quality := ""
		if f.SupportsQuality {
			quality = " quality"
		}
		alpha := ""
		if f.SupportsAlpha {
			alpha = " alpha"
		}
		fmt.Fprintf(cCtx.App.Writer, "%-11s %-5s %s%s%s\n", f.MIMEType, f.DisplayName, f.Extension, quality, alpha)
	}
	return nil
}

func watchAction(cCtx *cli.Context) error {
	conv, err := newConverter()
	if err != nil {
		return err
	}
	settings, err := settingsFrom(cCtx, conv)
	if err != nil {
		return err
	}

	w, err := hotfolder.New(conv, cCtx.String(InFlag), cCtx.String(OutFlag),
		hotfolder.WithSettings(settings),
		hotfolder.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}

	go func() {
		for err := range w.Errors() {
			fmt.Fprintf(cCtx.App.ErrWriter, "error: %v\n", err)
		}
	}()

	<-ctx.Done()
	return w.Close()
}
