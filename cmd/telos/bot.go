package main

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/config"
	"github.com/mpazaryna/telos/pkg/executor"
	"github.com/mpazaryna/telos/pkg/logger"
	"github.com/mpazaryna/telos/pkg/presenter"
	"github.com/mpazaryna/telos/pkg/router"
	"github.com/mpazaryna/telos/pkg/skills"
)

// The bot only answers in this channel.
const botChannel = "telos"

// Discord rejects messages over 2000 characters; stay under with headroom.
const botMessageLimit = 1900

var agentOverridePattern = regexp.MustCompile(`(?s)^--agent\s+(\S+)\s+(.*)$`)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the Discord front end",
	Long:  "Connects to Discord and routes messages in the #telos channel to skills.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd.Context())
	},
	SilenceUsage: true,
}

func runBot(ctx context.Context) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	env := executor.LoadEnv(configDir)
	token := env["DISCORD_BOT_TOKEN"]
	if token == "" {
		return errors.Errorf("DISCORD_BOT_TOKEN not set in %s", filepath.Join(configDir, ".env"))
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return errors.Wrap(err, "failed to create discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	// Skill runs are serialized; concurrent messages queue on the lock.
	var running sync.Mutex

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.ID == s.State.User.ID {
			return
		}
		channel, err := s.Channel(m.ChannelID)
		if err != nil || channel.Name != botChannel {
			return
		}
		text := strings.TrimSpace(m.Content)
		if text == "" {
			return
		}
		agentName, request := parseAgentOverride(text)

		running.Lock()
		defer running.Unlock()

		if err := s.ChannelTyping(m.ChannelID); err != nil {
			logger.G(ctx).WithError(err).Debug("failed to send typing indicator")
		}

		result := handleBotRequest(ctx, request, agentName)
		if result == "" {
			result = "(no output)"
		}
		for _, chunk := range chunkMessage(result, botMessageLimit) {
			if chunk == "" {
				continue
			}
			if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
				logger.G(ctx).WithError(err).Warn("failed to send discord message")
			}
		}
	})

	if err := session.Open(); err != nil {
		return errors.Wrap(err, "failed to connect to discord")
	}
	defer session.Close()

	presenter.Info("telos bot connected; press Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

// handleBotRequest runs one request end to end and returns the text to post
// back. Failures come back as text too; the bot never crashes on a bad
// request.
func handleBotRequest(ctx context.Context, request, agentName string) string {
	configPath, err := config.ConfigPath()
	if err != nil {
		return "Error: " + err.Error()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "Error: " + err.Error()
	}

	agent, skill, env, err := resolveBotSkill(ctx, cfg, request, agentName)
	if err != nil {
		return err.Error()
	}

	out := &bytes.Buffer{}
	if err := runSkill(ctx, agent, skill, env, request, out); err != nil {
		return "Error: " + err.Error()
	}
	return strings.TrimSpace(out.String())
}

// resolveBotSkill routes a request. An explicit agent restricts the search
// to that agent; otherwise every agent is tried in sorted order and the
// first match wins.
func resolveBotSkill(ctx context.Context, cfg *config.Config, request, agentName string) (config.Agent, skills.Skill, map[string]string, error) {
	search := cfg.Names()
	if agentName != "" {
		if _, ok := cfg.Agents[agentName]; !ok {
			return config.Agent{}, skills.Skill{}, nil,
				errors.Errorf("Agent %q not found. Available: %s", agentName, strings.Join(cfg.Names(), ", "))
		}
		search = []string{agentName}
	}

	for _, name := range search {
		agent := cfg.Agents[name]
		available, err := skills.Discover(agent.SkillsDir)
		if err != nil || len(available) == 0 {
			continue
		}
		env := executor.LoadEnv(agent.PackDir)
		skill, ok, err := router.NewRouter(env["ANTHROPIC_API_KEY"]).Route(ctx, available, request)
		if err != nil {
			return config.Agent{}, skills.Skill{}, nil, errors.Wrap(err, "failed to route request")
		}
		if ok {
			return agent, skill, env, nil
		}
	}

	return config.Agent{}, skills.Skill{}, nil, errors.Errorf("No matching skill for: %q", request)
}

// parseAgentOverride splits an optional leading "--agent <name>" off a
// message, so "--agent hackernews frontpage" targets the hackernews agent.
func parseAgentOverride(text string) (agent, request string) {
	if m := agentOverridePattern.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", text
}

// chunkMessage splits text into pieces of at most limit characters,
// preferring newline boundaries.
func chunkMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}
		split := strings.LastIndex(text[:limit], "\n")
		if split == -1 {
			split = limit
		}
		chunks = append(chunks, text[:split])
		text = strings.TrimLeft(text[split:], "\n")
	}
	return chunks
}
