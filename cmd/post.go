package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"contentpilot/internal/markdown"
	"contentpilot/internal/wordpress"

	"github.com/spf13/cobra"
)

var postStatusFlag string

var postCmd = &cobra.Command{
	Use:   "post <markdown_path>",
	Short: "Publish a markdown file to WordPress",
	Long:  "Read a markdown file with optional YAML frontmatter (title, excerpt, tags, status) and create a WordPress post from it.",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("requires <markdown_path>")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		pub, err := newPublisher(cfg)
		if err != nil {
			return err
		}

		doc, err := markdown.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		title := doc.Title()
		if title == "" {
			base := filepath.Base(args[0])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		status := doc.Status()
		if postStatusFlag != "" {
			status = postStatusFlag
		}
		if status == "" {
			status = cfg.WordPress.PostStatus
		}

		html, err := wordpress.RenderArticleHTML(doc.Body, doc.Excerpt(), "")
		if err != nil {
			return fmt.Errorf("render %s: %w", args[0], err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		post, err := pub.CreatePost(ctx, wordpress.CreatePostRequest{
			Title:   title,
			Content: html,
			Excerpt: doc.Excerpt(),
			Status:  status,
			Tags:    doc.Tags(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created post %d (%s): %s\n", post.ID, status, post.Link)
		return nil
	},
}

func init() {
	postCmd.Flags().StringVar(&postStatusFlag, "status", "", "post status (draft or publish, overrides frontmatter)")
	rootCmd.AddCommand(postCmd)
}
