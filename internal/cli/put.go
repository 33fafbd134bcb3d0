package cli

import (
	"fmt"
	"time"

	"github.com/agentmem/agent-memory/internal/chunker"
	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [content]",
		Short: "Store a memory",
		Long:  "Store a memory for an agent. Content can be a positional arg or piped via stdin.",
		Run:   runPut,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent ID (required)")
	cmd.Flags().String("org", "", "Organization ID")
	cmd.Flags().StringP("title", "T", "", "Short title")
	cmd.Flags().StringP("category", "c", "context", "Category: org_knowledge, interaction_pattern, preference, correction, skill, context, reflection")
	cmd.Flags().StringP("source", "s", "interaction", "Source: onboarding, interaction, admin, self_reflection, correction")
	cmd.Flags().StringP("importance", "i", "normal", "Importance: low, normal, high, critical")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().Float64("confidence", 1.0, "Confidence in [0, 1]")
	cmd.Flags().String("ttl", "", "Time to live, e.g. 7d, 24h, 30m")
	cmd.Flags().String("meta", "", "JSON object of string metadata")
	cmd.Flags().Bool("split", false, "Store each markdown section as its own memory, titled by its heading")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	org, _ := cmd.Flags().GetString("org")
	title, _ := cmd.Flags().GetString("title")
	categoryStr, _ := cmd.Flags().GetString("category")
	sourceStr, _ := cmd.Flags().GetString("source")
	importanceStr, _ := cmd.Flags().GetString("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	ttlStr, _ := cmd.Flags().GetString("ttl")
	metaStr, _ := cmd.Flags().GetString("meta")
	split, _ := cmd.Flags().GetBool("split")

	content := readContent(args)
	if content == "" && title == "" {
		exitErr("put", fmt.Errorf("content or --title is required"))
	}

	category, err := model.ParseCategory(categoryStr)
	if err != nil {
		exitErr("put", err)
	}
	source, err := model.ParseSource(sourceStr)
	if err != nil {
		exitErr("put", err)
	}
	importance, err := model.ParseImportance(importanceStr)
	if err != nil {
		exitErr("put", err)
	}
	var ttl time.Duration
	if ttlStr != "" {
		if ttl, err = store.ParseTTL(ttlStr); err != nil {
			exitErr("invalid ttl", err)
		}
	}
	meta := parseMeta(metaStr)

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	p := store.CreateParams{
		AgentID:    agent,
		OrgID:      org,
		Category:   category,
		Source:     source,
		Importance: importance,
		Title:      title,
		Content:    content,
		Tags:       splitTags(tagsStr),
		Confidence: &confidence,
		TTL:        ttl,
		Metadata:   meta,
	}
	if !split {
		printJSON(cmd, s.Create(p))
		return
	}

	var created []*model.Entry
	for _, sec := range chunker.Split(content, title, model.MaxContentLength) {
		sp := p
		sp.Title = sec.Title
		sp.Content = sec.Body
		sp.Metadata = make(map[string]string, len(meta)+1)
		for k, v := range meta {
			sp.Metadata[k] = v
		}
		sp.Metadata["section_lines"] = fmt.Sprintf("%d-%d", sec.StartLine, sec.EndLine)
		created = append(created, s.Create(sp))
	}
	printJSON(cmd, created)
}
