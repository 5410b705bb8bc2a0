package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <scene>",
		Short: "Show per-face detail for every part",
		Long: `Evaluate and mesh a scene, then list each part's faces with their
orientation, triangle count and the normal method that was used,
followed by merge statistics and any diagnostics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.run(cmd, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, part := range res.raw {
				rep := part.Report
				fmt.Fprintf(w, "%s (%s): %d faces, %d extracted, %d skipped\n",
					part.Name, res.Parts[i].Color, rep.FacesTotal, rep.FacesExtracted, rep.FacesSkipped)
				for j, face := range part.Shape.Faces {
					tris := 0
					if face != nil && face.Triangulation != nil {
						tris = face.Triangulation.TriangleCount()
					}
					orient := "-"
					if face != nil {
						orient = face.Orientation.String()
					}
					fmt.Fprintf(w, "  face %d: %s, %d triangles, %s\n", j, orient, tris, rep.Methods[j])
				}
				if rep.Merge != nil {
					fmt.Fprintf(w, "  merged %d -> %d vertices\n", rep.Merge.Before, rep.Merge.After)
				}
				for _, d := range rep.Diagnostics {
					fmt.Fprintf(w, "  ! %s\n", d.Error())
				}
			}
			return nil
		},
	}
}
