package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wippyai/gamehost/audio"
)

func newSoundsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sounds <clip>...",
		Short: "Load clips, print their format and play them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := loadSettings(v)
			log := newLogger(s.Debug)
			defer func() { _ = log.Sync() }()

			if s.Trace {
				shutdown, err := setupTracing(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer func() { _ = shutdown(cmd.Context()) }()
			}

			loader := audio.NewLoader(audio.NewSpeakerDevice(0, 0), nil)
			longest, err := playClips(cmd, loader, args, s.Volume)
			if err != nil {
				return err
			}

			select {
			case <-time.After(longest):
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}

// playClips loads every clip, prints one line per clip and starts it.
// It returns the longest clip duration.
func playClips(cmd *cobra.Command, loader *audio.Loader, paths []string, volume float64) (time.Duration, error) {
	var longest time.Duration
	out := cmd.OutOrStdout()
	for _, path := range paths {
		snd, err := loader.Load(cmd.Context(), path)
		if err != nil {
			return 0, fmt.Errorf("load %s: %w", path, err)
		}
		printClip(out, snd)
		snd.Play(volume)
		if d := snd.Duration(); d > longest {
			longest = d
		}
	}
	return longest, nil
}

func printClip(w io.Writer, snd *audio.Sound) {
	f := snd.Format()
	fmt.Fprintf(w, "%s\t%d Hz\t%d ch\t%s\n",
		snd.Path(), int(f.SampleRate), f.NumChannels, snd.Duration().Round(time.Millisecond))
}
