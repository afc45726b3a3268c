package cli

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// pterm's printers hold the writer they were built with, so every command
// prints through copies bound to its own output.

func success(cmd *cobra.Command) *pterm.PrefixPrinter {
	return pterm.Success.WithWriter(cmd.OutOrStdout())
}

func info(cmd *cobra.Command) *pterm.PrefixPrinter {
	return pterm.Info.WithWriter(cmd.OutOrStdout())
}

func warning(cmd *cobra.Command) *pterm.PrefixPrinter {
	return pterm.Warning.WithWriter(cmd.OutOrStdout())
}

func section(cmd *cobra.Command) *pterm.SectionPrinter {
	return pterm.DefaultSection.WithWriter(cmd.OutOrStdout())
}

func table(cmd *cobra.Command, data pterm.TableData) *pterm.TablePrinter {
	return pterm.DefaultTable.WithWriter(cmd.OutOrStdout()).WithHasHeader().WithData(data)
}
