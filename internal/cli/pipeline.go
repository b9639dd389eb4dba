package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewPipelineCmd создаёт группу команд для просмотра pipeline'ов.
func NewPipelineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Manage pipelines",
	}

	cmd.AddCommand(
		newPipelineListCmd(clientFn, outputFn),
		newPipelineShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newPipelineListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pipelines, err := client.ListPipelines()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "STEPS", "ON_FAILURE", "SCHEDULE", "DESCRIPTION"}
			rows := make([][]string, len(pipelines))
			for i, p := range pipelines {
				onFailure := ""
				if p.OnFailure != nil {
					onFailure = p.OnFailure.Name
				}
				schedule := ""
				if p.Schedule != nil {
					schedule = p.Schedule.Cron
				}
				rows[i] = []string{p.Name, strconv.Itoa(len(p.Steps)), onFailure, schedule, p.Description}
			}

			out.Print(headers, rows, pipelines)
			return nil
		},
	}
}

func newPipelineShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show pipeline steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			p, err := client.GetPipeline(args[0])
			if err != nil {
				return err
			}

			headers := []string{"#", "NAME", "TYPE"}
			rows := make([][]string, 0, len(p.Steps)+1)
			for i, step := range p.Steps {
				rows = append(rows, []string{strconv.Itoa(i + 1), step.Name, step.Type})
			}
			if p.OnFailure != nil {
				rows = append(rows, []string{"on_failure", p.OnFailure.Name, p.OnFailure.Type})
			}

			out.Print(headers, rows, p)
			return nil
		},
	}
}
