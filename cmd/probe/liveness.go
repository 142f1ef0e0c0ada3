package probe

import "github.com/spf13/cobra"

func newLiveness() *cobra.Command {
	return newProbe("liveness", "Runs the liveness probe", "/-/healthy")
}
