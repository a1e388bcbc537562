package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/vsariola/granular"
	"github.com/vsariola/granular/grain"
	"github.com/vsariola/granular/oto"
	"github.com/vsariola/granular/player"
	"github.com/vsariola/granular/sampleio"
	"github.com/vsariola/granular/version"
)

type options struct {
	preset, sample, seq string
	note                int
	length, tail        float64
	directory           string
	play, loop, watch   bool
	rawOut, wavOut, pcm bool
	embed               string
	config              granular.Config
}

func main() {
	var opt options
	opt.config = granular.DefaultConfig()
	flag.StringVar(&opt.preset, "preset", "", "Preset file (.yml or .json) with the parameters and the sample.")
	flag.StringVar(&opt.sample, "sample", "", "Sample file (.wav or .mp3). Overrides the sample of the preset.")
	flag.StringVar(&opt.seq, "seq", "", "Sequence file (.yml or .json) with the notes to play. By default, a single note is played.")
	flag.IntVar(&opt.note, "note", 60, "MIDI key of the single note played when no sequence is given.")
	flag.Float64Var(&opt.length, "length", 2, "Length of the single note, in seconds.")
	flag.Float64Var(&opt.tail, "tail", 0.5, "Silence rendered after the single note, in seconds.")
	flag.StringVar(&opt.directory, "o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, files are written to the working directory.")
	flag.BoolVar(&opt.play, "p", false, "Play the rendered audio (default behaviour when no other output is defined).")
	flag.BoolVar(&opt.loop, "loop", false, "When playing, repeat the sequence until interrupted.")
	flag.BoolVar(&opt.watch, "watch", false, "When playing, reload the preset whenever it changes. Implies -p and -loop.")
	flag.BoolVar(&opt.rawOut, "r", false, "Output the rendered audio as .raw file. By default, saves stereo float32 buffer to disk.")
	flag.BoolVar(&opt.wavOut, "w", false, "Output the rendered audio as .wav file. By default, saves stereo float32 buffer to disk.")
	flag.BoolVar(&opt.pcm, "c", false, "Convert audio to 16-bit signed PCM when outputting.")
	flag.StringVar(&opt.embed, "embed", "", "Write the preset, with the sample embedded in it, to this file and exit.")
	flag.IntVar(&opt.config.SampleRate, "rate", opt.config.SampleRate, "Output sample rate.")
	flag.IntVar(&opt.config.MaxVoices, "voices", opt.config.MaxVoices, "Maximum number of simultaneous notes.")
	flag.Int64Var(&opt.config.Seed, "seed", opt.config.Seed, "Seed of the grain position randomization.")
	params := flag.Bool("params", false, "List the parameters and their ranges and exit.")
	debug := flag.Bool("debug", false, "Log debug messages.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	initLogger(*debug)
	if *versionFlag {
		fmt.Println(version.Describe("granular-play"))
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *params {
		printParams()
		os.Exit(0)
	}
	if opt.watch {
		opt.play, opt.loop = true, true
	}
	if !opt.rawOut && !opt.wavOut && opt.embed == "" {
		opt.play = true // if the user gives nothing to output, then the default behaviour is just to play
	}
	if err := run(opt); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(opt options) error {
	if err := opt.config.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	if opt.watch && opt.preset == "" {
		return errors.New("-watch needs a preset file")
	}
	preset := granular.DefaultPreset()
	if opt.preset != "" {
		var err error
		if preset, err = granular.LoadPresetFile(opt.preset); err != nil {
			return err
		}
		slog.Debug("loaded preset", "path", opt.preset, "params", preset.Params)
	}
	if opt.sample != "" {
		preset.Sample = granular.SampleRef{Path: opt.sample}
	}
	smp, warning := sampleio.Load(preset.Sample, "")
	if warning != nil {
		slog.Warn("playing silence", "error", warning)
	}
	slog.Debug("loaded sample", "frames", smp.Len(), "rate", smp.SampleRate(), "seconds", smp.Duration())
	if opt.embed != "" {
		return embed(opt.embed, preset, smp)
	}
	seq, err := sequence(opt)
	if err != nil {
		return err
	}
	store := granular.NewParamStore(preset.Params)
	instrument, err := grain.New(smp, store, opt.config)
	if err != nil {
		return err
	}
	broker := player.NewBroker()
	go logAlerts(broker)
	name := outputName(opt)
	if opt.rawOut || opt.wavOut {
		buffer, err := player.Play(broker, instrument, seq, opt.config)
		if err != nil {
			return fmt.Errorf("player.Play failed: %w", err)
		}
		if err := writeOutputs(opt, name, buffer); err != nil {
			return err
		}
		// rendering moved the grain randomization and the stutter position
		if instrument, err = grain.New(smp, store, opt.config); err != nil {
			return err
		}
	}
	if !opt.play {
		return nil
	}
	return playLive(opt, broker, instrument, store, preset, seq)
}

func sequence(opt options) (granular.Sequence, error) {
	if opt.seq == "" {
		if opt.note < 0 || opt.note > 127 {
			return granular.Sequence{}, fmt.Errorf("note %d is not a MIDI key", opt.note)
		}
		rate := float64(opt.config.SampleRate)
		return granular.SingleNote(byte(opt.note), int(opt.length*rate), int(opt.tail*rate)), nil
	}
	f, err := os.Open(opt.seq)
	if err != nil {
		return granular.Sequence{}, fmt.Errorf("could not open sequence: %w", err)
	}
	defer f.Close()
	seq, err := granular.ReadSequence(f)
	if err != nil {
		return granular.Sequence{}, fmt.Errorf("could not read sequence %v: %w", opt.seq, err)
	}
	return seq, nil
}

func playLive(opt options, broker *player.Broker, instrument *grain.Instrument, store *granular.ParamStore, preset granular.Preset, seq granular.Sequence) error {
	audioContext, err := oto.NewContext(opt.config.SampleRate)
	if err != nil {
		return fmt.Errorf("could not acquire oto AudioContext: %w", err)
	}
	defer audioContext.Close()
	p := player.NewPlayer(broker, instrument, opt.config)
	seqContext := player.NewSequenceContext(seq, seq.TotalFrames(opt.config.SampleRate), opt.loop)
	output := audioContext.Play(func(buf granular.AudioBuffer) {
		seqContext.Begin(len(buf))
		p.Process(buf, seqContext)
	})
	defer output.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if opt.watch {
		go watchPreset(ctx, opt.preset, preset, store, broker)
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for !seqContext.Done() {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func embed(path string, preset granular.Preset, smp *granular.Sample) error {
	if smp.Empty() {
		return errors.New("there is no sample to embed")
	}
	data, err := sampleio.EncodeBytes(smp)
	if err != nil {
		return fmt.Errorf("could not encode sample: %w", err)
	}
	preset.Sample = granular.SampleRef{Data: data}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer f.Close()
	if err := granular.WritePreset(f, preset, filepath.Ext(path)); err != nil {
		return fmt.Errorf("could not write preset %v: %w", path, err)
	}
	return nil
}

func logAlerts(broker *player.Broker) {
	for msg := range broker.ToModel {
		alert, ok := msg.Data.(player.Alert)
		if !ok {
			continue
		}
		level := slog.LevelInfo
		switch alert.Priority {
		case player.Warning:
			level = slog.LevelWarn
		case player.Error:
			level = slog.LevelError
		}
		slog.Log(context.Background(), level, alert.Message, "alert", alert.Name, "voices", msg.Voices)
	}
}

func outputName(opt options) string {
	for _, p := range []string{opt.preset, opt.sample} {
		if p != "" {
			_, name := filepath.Split(p)
			return strings.TrimSuffix(name, filepath.Ext(name))
		}
	}
	return "granular"
}

func writeOutputs(opt options, name string, buffer granular.AudioBuffer) error {
	output := func(extension string, contents []byte) error {
		dir := opt.directory
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
			}
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %w", dir, err)
		}
		f := filepath.Join(dir, name+extension)
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %w", f, err)
		}
		slog.Info("wrote file", "path", f)
		return nil
	}
	if opt.rawOut {
		raw, err := buffer.Raw(opt.pcm)
		if err != nil {
			return fmt.Errorf("could not generate .raw file: %w", err)
		}
		if err := output(".raw", raw); err != nil {
			return fmt.Errorf("error outputting .raw file: %w", err)
		}
	}
	if opt.wavOut {
		wav, err := buffer.Wav(opt.config.SampleRate, opt.pcm)
		if err != nil {
			return fmt.Errorf("could not generate .wav file: %w", err)
		}
		if err := output(".wav", wav); err != nil {
			return fmt.Errorf("error outputting .wav file: %w", err)
		}
	}
	return nil
}

func printParams() {
	for _, info := range granular.ParamInfos() {
		fmt.Printf("%-14s %-16s %8g .. %-8g (default %g)\n", info.Key, info.Name, info.Min, info.Max, info.Default)
	}
	fmt.Printf("%-14s %-16s %v\n", "loopmode", "Loop Mode", "off, loop, pingpong")
	fmt.Printf("%-14s %-16s %v\n", "interpolation", "Interpolation", "nearest, linear, sinc")
	fmt.Printf("%-14s %-16s %v\n", "reverse", "Reverse", "true, false")
	fmt.Printf("%-14s %-16s %v\n", "stutter", "Stutter", "true, false")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Granular sample player: renders or plays a sample through the granular engine.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
