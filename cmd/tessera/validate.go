package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInvalid = errors.New("scene failed validation")

func newValidateCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <scene>",
		Short: "Check a scene and its meshes",
		Long: `Evaluate and mesh a scene, then check every mesh for buffer
consistency and in-range indices. Exits non-zero on evaluation or
scene graph errors, on a malformed mesh, or with --strict on any
extraction diagnostic.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.run(cmd, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			failed := 0
			for _, p := range res.Parts {
				if err := p.Mesh.Validate(); err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", p.Name, err)
					failed++
					continue
				}
				if strict && len(p.Diagnostics) > 0 {
					fmt.Fprintf(w, "FAIL %s: %d diagnostic(s)\n", p.Name, len(p.Diagnostics))
					for _, d := range p.Diagnostics {
						fmt.Fprintf(w, "  %s\n", d)
					}
					failed++
					continue
				}
				fmt.Fprintf(w, "ok   %s\n", p.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d parts", errInvalid, failed, len(res.Parts))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat extraction diagnostics as failures")
	return cmd
}
