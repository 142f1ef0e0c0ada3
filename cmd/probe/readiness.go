package probe

import "github.com/spf13/cobra"

func newReadiness() *cobra.Command {
	return newProbe("readiness", "Runs the readiness probe", "/-/ready")
}
