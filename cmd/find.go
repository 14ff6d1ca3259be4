package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mj1618/wizard-pilot/internal/locate"
	"github.com/mj1618/wizard-pilot/internal/model"
	"github.com/mj1618/wizard-pilot/internal/output"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Locate one element without acting on it",
	Long:  "Resolve an element query through the strategy chain against the current screen and print where it was found and how.",
	RunE:  runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	addQueryFlags(findCmd)
	findCmd.Flags().StringSlice("strategies", nil, "Only run these strategies: handle, ocr, shape, coordinates, shortcut")
	findCmd.Flags().Bool("field", false, "Treat the query as a field label and return the input next to it")
}

func runFind(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	strategies, _ := cmd.Flags().GetStringSlice("strategies")
	field, _ := cmd.Flags().GetBool("field")

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log, cleanup, err := newLogger(s)
	if err != nil {
		return err
	}
	defer cleanup()

	provider, err := newProvider()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	binding, err := bindInstaller(ctx, provider, s)
	if err != nil {
		return err
	}
	r := locate.NewResolver(provider.Probe, newTextReader(s), binding, log.Named("locate"))
	opts, err := s.WizardOptions()
	if err != nil {
		return err
	}
	r.Strategies = locate.DefaultStrategies(opts.Thresholds)

	var ropts []locate.ResolveOption
	if len(strategies) > 0 {
		ropts = append(ropts, locate.WithStrategies(strategies...))
	}
	var el *model.LocatedElement
	if field {
		el, err = r.LocateField(ctx, q, ropts...)
	} else {
		el, err = r.Resolve(ctx, q, ropts...)
	}

	res := output.FindResult{Query: q.String(), Element: el}
	if err != nil {
		res.Error = err.Error()
		var nf *model.NotFoundError
		if errors.As(err, &nf) {
			res.Tried = nf.Tried
		}
	}
	if perr := output.Print(res); perr != nil {
		return perr
	}
	return err
}
