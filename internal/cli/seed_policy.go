package cli

import (
	"fmt"

	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "seed-policy [content]",
		Short: "Seed an organizational policy into an agent's memory",
		Long: "Store a policy as org knowledge. Mandatory policies become critical, recommended ones high, " +
			"anything else normal. Seeding the same --policy-id again updates the existing memory.",
		Run: runSeedPolicy,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent ID (required)")
	cmd.Flags().String("org", "", "Organization ID")
	cmd.Flags().String("policy-id", "", "Policy ID (required)")
	cmd.Flags().String("name", "", "Policy name (required)")
	cmd.Flags().StringP("enforcement", "e", "informational", "Enforcement: mandatory, recommended, informational")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")

	cmd.MarkFlagRequired("agent")
	cmd.MarkFlagRequired("policy-id")
	cmd.MarkFlagRequired("name")

	RootCmd.AddCommand(cmd)
}

func runSeedPolicy(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	org, _ := cmd.Flags().GetString("org")
	policyID, _ := cmd.Flags().GetString("policy-id")
	name, _ := cmd.Flags().GetString("name")
	enforcement, _ := cmd.Flags().GetString("enforcement")
	tagsStr, _ := cmd.Flags().GetString("tags")

	content := readContent(args)
	if content == "" {
		exitErr("seed-policy", fmt.Errorf("policy content is required (positional arg or stdin)"))
	}

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	e := s.SeedPolicy(store.SeedPolicyParams{
		AgentID:     agent,
		OrgID:       org,
		PolicyID:    policyID,
		Name:        name,
		Content:     content,
		Enforcement: enforcement,
		Tags:        splitTags(tagsStr),
	})
	printJSON(cmd, e)
}
