package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-metabox/pkg/restschema"
	"github.com/goliatone/go-metabox/pkg/storage"
)

func newPostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List, create and inspect posts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			posts, err := a.store.ListPosts(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSLUG\tTITLE")
			for _, post := range posts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", post.ID, post.Type, post.Name, post.Title)
			}
			return w.Flush()
		},
	}

	var post storage.Post
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := a.store.CreatePost(cmd.Context(), post)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %d (%s)\n", created.Type, created.ID, created.Name)
			return nil
		},
	}
	create.Flags().StringVar(&post.Type, "type", "post", "post type")
	create.Flags().StringVar(&post.Title, "title", "", "post title")
	create.Flags().StringVar(&post.Name, "slug", "", "post slug; derived from the title when empty")

	meta := &cobra.Command{
		Use:   "meta <post-id>",
		Short: "Print the decoded meta of a post as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			if _, err := a.store.GetPost(cmd.Context(), id); err != nil {
				return fmt.Errorf("post %d: %w", id, err)
			}
			values, err := restschema.Collect(cmd.Context(), a.runtime.Registry, a.store, id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(values)
		},
	}

	cmd.AddCommand(list, create, meta)
	return cmd
}
