package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/rephrase"
	"github.com/zhouzirui/yoda-bot/backend/internal/app"
	"github.com/zhouzirui/yoda-bot/backend/internal/config"
	"github.com/zhouzirui/yoda-bot/backend/internal/logging"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/ai"
	"github.com/zhouzirui/yoda-bot/backend/internal/service/turn"
)

func rephraseCommand() *cli.Command {
	return &cli.Command{
		Name:      "rephrase",
		Usage:     "Reorder sentences the way Master Yoda speaks",
		ArgsUsage: "[TEXT...]",
		Action: func(c *cli.Context) error {
			return eachLine(c, func(line string) error {
				_, err := fmt.Fprintln(c.App.Writer, rephrase.Rephrase(line))
				return err
			})
		},
	}
}

func emotionCommand() *cli.Command {
	return &cli.Command{
		Name:      "emotion",
		Usage:     "Score the polarity of text with the VADER sentiment lexicon",
		ArgsUsage: "[TEXT...]",
		Action: func(c *cli.Context) error {
			vader := emotion.NewVader()
			return eachLine(c, func(line string) error {
				_, err := fmt.Fprintln(c.App.Writer, emotion.Detect(vader, line))
				return err
			})
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Check a model checkpoint directory",
		ArgsUsage: "[DIR]",
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				dir = cfg.Model.Path
			}

			ckpt, err := ai.InspectCheckpoint(dir)
			if err != nil {
				var loadErr *ai.LoadError
				if errors.As(err, &loadErr) {
					return cli.Exit(fmt.Sprintf("%s: %v", loadErr.Reason, loadErr.Err), 2)
				}
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(ckpt)
		},
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to Master Yoda in the terminal",
		Action: func(c *cli.Context) error {
			_ = godotenv.Load()
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log)

			services, err := app.New(c.Context, cfg)
			if err != nil {
				return err
			}
			if err := services.Turns.Available(c.Context); err != nil {
				return cli.Exit(fmt.Sprintf("generator unavailable: %v", err), 2)
			}

			session, err := services.Chat.CreateSession(c.Context, persona.DefaultID)
			if err != nil {
				return err
			}
			mentor, _ := services.Personas.FindByID(session.PersonaID)
			return runChat(c, services.Turns, session.ID, mentor)
		},
	}
}

func runChat(c *cli.Context, turns *turn.Service, sessionID string, mentor persona.Persona) error {
	out := c.App.Writer
	fmt.Fprintf(out, "\"%s\"\n\n", mentor.Greeting)

	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}

		result, err := turns.Submit(c.Context, sessionID, scanner.Text())
		switch {
		case errors.Is(err, turn.ErrEmptyInput):
			continue
		case err != nil:
			return err
		}
		fmt.Fprintf(out, "%s: %s\n[%s]\n", mentor.Name, result.Reply.Content, result.UserEmotion)
	}

	fmt.Fprintf(out, "\n\"%s\" - %s\n", mentor.Farewell, mentor.Name)
	return scanner.Err()
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

// eachLine applies fn to the joined arguments, or to every stdin line when
// no arguments are given.
func eachLine(c *cli.Context, fn func(string) error) error {
	if c.NArg() > 0 {
		return fn(strings.Join(c.Args().Slice(), " "))
	}
	return forEachLine(c.App.Reader, fn)
}

func forEachLine(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
