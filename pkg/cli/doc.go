/*
Package cli provides helpers shared by the grokgate commands.

Output Formatting:

Evidence query results can be printed as text, JSON or CSV:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewExporter(format).Export(ctx, records, os.Stdout)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes; configuration errors
exit with 2.
*/
package cli
