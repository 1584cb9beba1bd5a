package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-metabox/pkg/prompt"
)

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <post-id> <box-key>",
		Short: "Edit one box of a post from the terminal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			ctx := a.userContext(cmd.Context())
			post, err := a.store.GetPost(ctx, id)
			if err != nil {
				return fmt.Errorf("post %d: %w", id, err)
			}
			box, err := a.runtime.Registry.Get(args[1])
			if err != nil {
				return err
			}

			editor, err := prompt.New(a.store, a.runtime.Deps.Nonces,
				prompt.WithPromptDriver(prompt.NewSurveyDriver(cmd.OutOrStdout())),
				prompt.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if _, err := editor.Edit(ctx, box, post); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s on post %d\n", box.Config().Key, post.ID)
			return nil
		},
	}
}
