// Command soundsysdemo opens the engine, plays one file, and reports
// periodic status until playback ends or the process is interrupted.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"soundsys"
	"soundsys/config"
	"soundsys/reverb"
	"soundsys/voice"
	"soundsys/wavefmt"
)

func main() {
	path := flag.String("play", "", "path to a file to play (raw PCM unless -opus is set)")
	sampleRate := flag.Int("rate", 44100, "sample rate of the input file, Hz")
	channels := flag.Int("channels", 2, "channel count of the input file")
	bitDepth := flag.Int("bits", 16, "bit depth of the input file")
	useOpus := flag.Bool("opus", false, "decode -play as an Opus stream instead of raw PCM")
	frameSize := flag.Int("opus-frame", 960, "Opus frame size in samples per channel")
	volume := flag.Int("volume", 0, "playback volume in centibels, [-10000, 0]")
	flag.Parse()

	log := slog.Default()

	if *path == "" {
		log.Error("missing required -play <path>")
		os.Exit(2)
	}

	cfg := config.Load()

	eng := soundsys.New()
	if err := eng.Startup(); err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	format := wavefmt.Format{ChannelCount: *channels, BitDepth: *bitDepth, SampleRate: *sampleRate}
	rateSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "rate" {
			rateSet = true
		}
	})
	if cfg.SampleRate != 0 && !rateSet {
		format.SampleRate = cfg.SampleRate
	}
	if err := eng.WaveOutOpen(format); err != nil {
		log.Error("wave out open failed", "err", err)
		os.Exit(1)
	}
	defer eng.Shutdown()

	if err := eng.SetDigitalMasterVolume(*volume); err != nil {
		log.Warn("set master volume failed", "err", err)
	}

	if cfg.ReverbEnabled && eng.SupportsEAX20Filter() {
		if err := eng.SetEAX20Filter(true, reverbFromConfig(cfg.ReverbPreset)); err != nil {
			log.Warn("enable reverb failed", "err", err)
		}
	}

	decoder := decoderFor(*useOpus, format, *frameSize)

	handle, err := eng.OpenStream(*path, 0, decoder, format.SampleRate)
	if err != nil {
		log.Error("open stream failed", "path", *path, "err", err)
		os.Exit(1)
	}
	defer eng.CloseStream(handle)

	if err := eng.StartStream(handle); err != nil {
		log.Error("start stream failed", "err", err)
		os.Exit(1)
	}
	log.Info("playing", "path", filepath.Base(*path), "sample_rate", format.SampleRate, "channels", format.ChannelCount)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Info("interrupted, shutting down")
			return
		case <-ticker.C:
			status, err := eng.StreamStatus(handle)
			if err != nil {
				log.Error("stream status failed", "err", err)
				return
			}
			if status == voice.StatusStopped || status == voice.StatusFailed {
				log.Info("playback finished", "ms", eng.MsCount(), "status", statusName(status))
				return
			}
			log.Info("status", "ms", eng.MsCount())
		}
	}
}

func decoderFor(useOpus bool, format wavefmt.Format, frameSize int) voice.DecoderFactory {
	if useOpus {
		return voice.NewOpusDecoderFactory(format.SampleRate, format.ChannelCount, frameSize)
	}
	return voice.NewPCMDecoderFactory(format, -1)
}

func reverbFromConfig(presetID int) reverb.EnvironmentalReverb {
	return reverb.FromPreset(presetID)
}

func statusName(s voice.Status) string {
	switch s {
	case voice.StatusPlaying:
		return "playing"
	case voice.StatusStopped:
		return "stopped"
	case voice.StatusFailed:
		return "failed"
	default:
		return "none"
	}
}
