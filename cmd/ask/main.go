package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"ikms-rag-be/internal/bootstrap"
	"ikms-rag-be/internal/config"
	"ikms-rag-be/internal/dto"
	"ikms-rag-be/pkg/database"

	"github.com/fatih/color"
)

// ask runs the QA pipeline in-process. With no question argument it reads
// questions from stdin and keeps one session for the whole conversation.
func main() {
	sessionID := flag.String("session", "", "resume an existing session")
	showContext := flag.Bool("context", false, "print the retrieved context")
	flag.Parse()

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("Unable to connect to GORM DB: %v", err)
		os.Exit(1)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx := context.Background()
	session := *sessionID

	if q := strings.Join(flag.Args(), " "); q != "" {
		if _, err := ask(ctx, container, q, session, *showContext); err != nil {
			os.Exit(1)
		}
		return
	}

	color.Cyan("Ask a question (empty line to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			return
		}
		if next, err := ask(ctx, container, q, session, *showContext); err == nil {
			session = next
		}
	}
}

func ask(ctx context.Context, c *bootstrap.Container, question, session string, showContext bool) (string, error) {
	req := &dto.QuestionRequest{Question: question}
	if session != "" {
		req.SessionId = &session
	}

	res, err := c.QAService.Ask(ctx, req)
	if err != nil {
		color.Red("Failed: %v", err)
		return session, err
	}

	if res.Plan != nil {
		color.Yellow("\nPlan:")
		fmt.Println(*res.Plan)
	}
	if len(res.SubQuestions) > 0 {
		color.Yellow("\nSub-questions:")
		for _, sq := range res.SubQuestions {
			fmt.Println("- " + sq)
		}
	}
	if showContext {
		color.Yellow("\nContext:")
		fmt.Println(res.Context)
	}
	color.Green("\nAnswer:")
	fmt.Println(res.Answer)
	color.HiBlack("\nsession: %s\n", res.SessionId)

	return res.SessionId, nil
}
