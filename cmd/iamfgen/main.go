// Command iamfgen assembles an IAMF-style bitstream from a declarative
// manifest: descriptor OBUs followed by one temporal unit per tick, written
// via the Sequencer.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/iamfkit/internal/audioelement"
	"github.com/linuxmatters/iamfkit/internal/cli"
	"github.com/linuxmatters/iamfkit/internal/logging"
	"github.com/linuxmatters/iamfkit/internal/metadata"
	"github.com/linuxmatters/iamfkit/internal/mixpresentation"
	"github.com/linuxmatters/iamfkit/internal/obu"
	"github.com/linuxmatters/iamfkit/internal/sequencer"
	"github.com/linuxmatters/iamfkit/internal/temporalunit"
	"github.com/linuxmatters/iamfkit/internal/ui"
)

// version is set via ldflags at build time.
var version = "dev"

// CLI defines the command-line interface.
type CLI struct {
	Version  bool   `short:"v" help:"Show version information"`
	Manifest string `arg:"" name:"manifest" help:"YAML manifest describing the sequence to assemble" type:"existingfile" optional:""`
	Output   string `short:"o" help:"Output file for the serialized bitstream" default:"out.iamf"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("iamfgen"),
		kong.Description("Immersive Audio Model and Formats bitstream generator"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if cliArgs.Manifest == "" {
		cli.PrintError("No manifest specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	if err := run(cliArgs); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(cliArgs *CLI) error {
	m, err := loadManifest(cliArgs.Manifest)
	if err != nil {
		return err
	}

	sink := logging.NewCharmSink()
	warn := logging.AsWarnFunc(sink)

	codecConfigs := make(map[uint64]*obu.CodecConfig, len(m.CodecConfigs))
	for _, c := range m.CodecConfigs {
		cc, err := c.toObu()
		if err != nil {
			return err
		}
		codecConfigs[cc.CodecConfigID] = cc
	}

	audioElementMetas := make([]metadata.AudioElementMetadata, 0, len(m.AudioElements))
	for _, a := range m.AudioElements {
		audioElementMetas = append(audioElementMetas, a.toMetadata())
	}
	audioElements, _, err := audioelement.Generate(codecConfigs, audioElementMetas, warn)
	if err != nil {
		return err
	}

	mixPresentationMetas := make([]metadata.MixPresentationMetadata, 0, len(m.MixPresentations))
	for _, mp := range m.MixPresentations {
		mixPresentationMetas = append(mixPresentationMetas, mp.toMetadata())
	}
	mixPresentations, err := mixpresentation.Generate(false, mixPresentationMetas, obu.ProfileBase)
	if err != nil {
		return err
	}

	frames := make([]temporalunit.AudioFrameWithData, 0, len(m.AudioFrames))
	for _, f := range m.AudioFrames {
		wf, err := f.toAudioFrameWithData()
		if err != nil {
			return err
		}
		frames = append(frames, wf)
	}

	uiModel := ui.NewModel()
	program := tea.NewProgram(uiModel)

	outFile, err := os.Create(cliArgs.Output)
	if err != nil {
		return err
	}
	defer outFile.Close()

	hooks := newFileHooks(outFile, program)
	s := sequencer.New(hooks, m.Delayed, obu.Minimal)

	done := make(chan error, 1)
	go func() {
		done <- s.PickAndPlace(obu.SequenceHeader{
			PrimaryProfile:    obu.Profile(m.SequenceHeader.PrimaryProfile),
			AdditionalProfile: obu.Profile(m.SequenceHeader.AdditionalProfile),
		}, codecConfigs, audioElements, mixPresentations, frames, nil, nil)
	}()

	go func() {
		runErr := <-done
		hooks.finalErr = runErr
		program.Send(ui.SequencingCompleteMsg{
			TemporalUnits:   hooks.unitsWritten,
			DescriptorBytes: hooks.descriptorBytes,
			TotalBytes:      hooks.totalBytes,
			Err:             runErr,
		})
	}()

	if _, err := program.Run(); err != nil {
		return err
	}

	if hooks.finalErr != nil {
		return hooks.finalErr
	}

	cli.PrintSequencingSummary(hooks.unitsWritten, "", cli.FormatBytes(int64(hooks.totalBytes)))
	return nil
}
