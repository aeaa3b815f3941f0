package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/quizling/internal/model"
	"github.com/stemsi/quizling/internal/quiz"
)

// player runs quiz sessions over a line-oriented terminal.
type player struct {
	src   quiz.QuestionSource
	count int
	in    io.Reader
	out   io.Writer
	width int
}

// Run plays quizzes until the player quits or input ends.
func (p *player) Run(ctx context.Context) error {
	session := quiz.NewSession(p.src, p.count)
	lines := bufio.NewScanner(p.in)

	for {
		fmt.Fprintf(p.out, "Loading %d questions...\n", session.QuestionCount())
		if err := session.Start(ctx); err != nil {
			return err
		}

		snap := session.Snapshot()
		if snap.Phase == quiz.PhaseError {
			fmt.Fprintln(p.out, "Error:", snap.Error)
			if !p.confirm(lines, "Try again?") {
				return nil
			}
			session.Reset()
			continue
		}

		quit, err := p.answer(ctx, session, lines)
		if err != nil || quit {
			return err
		}

		p.printReview(session.Snapshot().BuildReview())
		if !p.confirm(lines, "Take another quiz?") {
			return nil
		}
		session.Reset()
	}
}

// answer drives one in-progress quiz. It returns quit=true when the player
// leaves before submitting.
func (p *player) answer(ctx context.Context, session *quiz.Session, lines *bufio.Scanner) (bool, error) {
	for session.Phase() == quiz.PhaseInProgress {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		p.printQuestion(session.Snapshot())

		fmt.Fprint(p.out, "> ")
		if !lines.Scan() {
			return true, lines.Err()
		}
		input := strings.TrimSpace(lines.Text())

		var err error
		switch strings.ToLower(input) {
		case "n", "next":
			err = session.Next()
		case "p", "prev", "previous":
			err = session.Previous()
		case "s", "submit":
			err = session.Submit()
		case "q", "quit":
			return true, nil
		default:
			label, ok := model.ParseLabel(input)
			if !ok {
				fmt.Fprintln(p.out, "Enter A-D to answer, n/p to move, s to submit, q to quit.")
				continue
			}
			if err = session.SelectAnswer(label); err == nil && !session.Snapshot().IsLast {
				err = session.Next()
			}
		}
		if err != nil && !errors.Is(err, quiz.ErrNotInProgress) {
			return true, err
		}
	}
	return false, nil
}

func (p *player) printQuestion(s quiz.Snapshot) {
	q := s.Current
	if q == nil {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Question %d of %d [%s]\n", s.Position+1, s.TotalQuestions, q.Difficulty)
	fmt.Fprintln(p.out, wrap(q.Question, p.width))
	for _, opt := range q.Options {
		marker := " "
		if s.SelectedAnswer != nil && *s.SelectedAnswer == opt.Label {
			marker = "*"
		}
		fmt.Fprintln(p.out, wrap(fmt.Sprintf("%s %s) %s", marker, opt.Label, opt.Text), p.width))
	}
	if s.IsLast {
		fmt.Fprintln(p.out, "Last question: enter s to submit.")
	}
}

func (p *player) printReview(r quiz.Review) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%s %s\n", r.Tier.Label, r.Tier.Message)
	fmt.Fprintf(p.out, "Score: %d / %d (%d%%)\n", r.Score, r.Total, r.Percentage)
	for _, item := range r.Items {
		fmt.Fprintln(p.out)
		status := "correct"
		if !item.Correct {
			status = "incorrect"
		}
		fmt.Fprintln(p.out, wrap(fmt.Sprintf("%d. %s (%s)", item.Number, item.Question.Question, status), p.width))
		selected := "Not answered"
		if item.Answered() {
			selected = optionText(item.Question, *item.Selected)
		}
		fmt.Fprintf(p.out, "   Your answer: %s\n", selected)
		if !item.Correct {
			fmt.Fprintf(p.out, "   Correct answer: %s\n", optionText(item.Question, item.Question.CorrectAnswer))
		}
		if item.Question.HasExplanation() {
			fmt.Fprintln(p.out, wrap("   "+*item.Question.Explanation, p.width))
		}
	}
}

// optionText renders "B) text", or just the label when q lacks it.
func optionText(q model.Question, l model.Label) string {
	if o, ok := q.Option(l); ok {
		return fmt.Sprintf("%s) %s", l, o.Text)
	}
	return string(l)
}

func (p *player) confirm(lines *bufio.Scanner, prompt string) bool {
	fmt.Fprintf(p.out, "%s (y/N) ", prompt)
	if !lines.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(lines.Text()))
	return answer == "y" || answer == "yes"
}

// wrap breaks s into lines of at most width runes on word boundaries.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	indent := s[:len(s)-len(strings.TrimLeft(s, " "))]
	var b strings.Builder
	b.WriteString(indent)
	lineLen := len(indent)
	empty := true
	for _, word := range strings.Fields(s) {
		n := len([]rune(word))
		if !empty && lineLen+1+n > width {
			b.WriteByte('\n')
			lineLen = 0
		} else if !empty {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(word)
		lineLen += n
		empty = false
	}
	return b.String()
}
