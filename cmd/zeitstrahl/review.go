package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/review"
)

// cardService is the part of flashcards.Service the review loop needs.
type cardService interface {
	List(ctx context.Context, dueOnly bool) ([]domain.Card, error)
	SaveSchedule(ctx context.Context, card domain.Card) (*domain.Card, error)
	Edit(ctx context.Context, id, question, answer string) (*domain.Card, error)
	Delete(ctx context.Context, id string) error
}

type reviewStats struct {
	correct, wrong, deleted, edited int
}

// runReview walks through the due cards in random order. Each card shows its
// question, the answer after Enter, and then waits for a grade.
func runReview(ctx context.Context, in io.Reader, out io.Writer, svc cardService, rng *rand.Rand) error {
	cards, err := svc.List(ctx, false)
	if err != nil {
		return err
	}
	session := review.NewSession(cards, time.Now(), rng)
	if session.Len() == 0 {
		fmt.Fprintln(out, "No cards due.")
		return nil
	}
	fmt.Fprintf(out, "%d cards due.\n", session.Len())

	sc := bufio.NewScanner(in)
	var stats reviewStats
	defer func() {
		fmt.Fprintf(out, "\nCorrect: %d, wrong: %d, edited: %d, deleted: %d, left: %d\n",
			stats.correct, stats.wrong, stats.edited, stats.deleted, session.Len())
	}()

	for {
		card, ok := session.Next()
		if !ok {
			fmt.Fprintln(out, "\nAll due cards reviewed.")
			return nil
		}

		fmt.Fprintf(out, "\nQ: %s\n", card.Question)
		fmt.Fprint(out, "(press Enter to show the answer) ")
		if !sc.Scan() {
			return sc.Err()
		}
		fmt.Fprintf(out, "A: %s\n", card.Answer)
		if card.Context != "" {
			fmt.Fprintf(out, "C: %s\n", card.Context)
		}

	grade:
		for {
			fmt.Fprint(out, "Correct? [y]es, [n]o, [e]dit, [d]elete, [q]uit: ")
			if !sc.Scan() {
				return sc.Err()
			}
			switch cmd := strings.ToLower(strings.TrimSpace(sc.Text())); cmd {
			case "y", "n":
				correct := cmd == "y"
				scheduled, err := session.Answer(card.ID, correct, time.Now())
				if err != nil {
					return err
				}
				updated, err := svc.SaveSchedule(ctx, scheduled)
				if err != nil {
					return err
				}
				if correct {
					stats.correct++
				} else {
					stats.wrong++
				}
				fmt.Fprintf(out, "Level %s, due %s\n", updated.Proficiency, updated.DueAt.Local().Format("2006-01-02"))
				break grade

			case "e":
				edited, err := editCard(ctx, sc, out, svc, card)
				if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrConflict) {
					fmt.Fprintf(out, "Not saved: %v\n", err)
					continue
				}
				if err != nil {
					return err
				}
				session.Replace(*edited)
				card = *edited
				stats.edited++
				fmt.Fprintln(out, "Card saved.")

			case "d":
				if err := svc.Delete(ctx, card.ID); err != nil {
					return err
				}
				session.Remove(card.ID)
				stats.deleted++
				fmt.Fprintln(out, "Card deleted.")
				break grade

			case "q":
				return nil

			default:
				fmt.Fprintln(out, "Please answer y, n, e, d or q.")
			}
		}
	}
}

// editCard reads a new question and answer. An empty line keeps the current
// text.
func editCard(ctx context.Context, sc *bufio.Scanner, out io.Writer, svc cardService, card domain.Card) (*domain.Card, error) {
	question, answer := card.Question, card.Answer

	fmt.Fprintf(out, "Question [%s]: ", question)
	if !sc.Scan() {
		return nil, io.ErrUnexpectedEOF
	}
	if v := strings.TrimSpace(sc.Text()); v != "" {
		question = v
	}

	fmt.Fprintf(out, "Answer [%s]: ", answer)
	if !sc.Scan() {
		return nil, io.ErrUnexpectedEOF
	}
	if v := strings.TrimSpace(sc.Text()); v != "" {
		answer = v
	}
	return svc.Edit(ctx, card.ID, question, answer)
}
