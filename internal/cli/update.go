package cli

import (
	"fmt"
	"time"

	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a memory",
		Long:  "Change fields of a memory. Only flags that are set are applied; title, content and tag changes re-index it.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().StringP("title", "T", "", "New title")
	cmd.Flags().String("content", "", "New content")
	cmd.Flags().StringP("tags", "t", "", "Replace tags (comma-separated)")
	cmd.Flags().StringP("category", "c", "", "New category")
	cmd.Flags().StringP("source", "s", "", "New source")
	cmd.Flags().StringP("importance", "i", "", "New importance")
	cmd.Flags().Float64("confidence", 0, "New confidence in [0, 1]")
	cmd.Flags().String("ttl", "", "New time to live from now, e.g. 7d")
	cmd.Flags().Bool("no-expiry", false, "Clear the expiry")
	cmd.Flags().String("meta", "", "JSON object merged into metadata; empty values delete keys")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	var p store.UpdateParams

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		p.Title = &v
	}
	if flags.Changed("content") {
		v, _ := flags.GetString("content")
		p.Content = &v
	}
	if flags.Changed("tags") {
		v, _ := flags.GetString("tags")
		tags := splitTags(v)
		p.Tags = &tags
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		c, err := model.ParseCategory(v)
		if err != nil {
			exitErr("update", err)
		}
		p.Category = &c
	}
	if flags.Changed("source") {
		v, _ := flags.GetString("source")
		src, err := model.ParseSource(v)
		if err != nil {
			exitErr("update", err)
		}
		p.Source = &src
	}
	if flags.Changed("importance") {
		v, _ := flags.GetString("importance")
		imp, err := model.ParseImportance(v)
		if err != nil {
			exitErr("update", err)
		}
		p.Importance = &imp
	}
	if flags.Changed("confidence") {
		v, _ := flags.GetFloat64("confidence")
		p.Confidence = &v
	}
	p.ClearExpiry, _ = flags.GetBool("no-expiry")
	if ttlStr, _ := flags.GetString("ttl"); ttlStr != "" {
		ttl, err := store.ParseTTL(ttlStr)
		if err != nil {
			exitErr("invalid ttl", err)
		}
		exp := time.Now().Add(ttl)
		p.ExpiresAt = &exp
	}
	metaStr, _ := flags.GetString("meta")
	p.Metadata = parseMeta(metaStr)

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	e, ok := s.Update(args[0], p)
	if !ok {
		exitErr("update", fmt.Errorf("memory not found: %s", args[0]))
	}
	printJSON(cmd, e)
}
