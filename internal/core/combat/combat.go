package combat

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/zeusync/killzone/internal/core/entity"
)

const (
	Rounds = 3

	playerBonus     = 20
	playerVsMobEdge = 50
	deadPenalty     = -100
	minWeight       = 1
)

// Round is one weighted coin flip of a battle.
type Round struct {
	Round    int    `json:"round"`
	WinnerID string `json:"winnerId"`
	Message  string `json:"message"`
}

// Result is the outcome of a battle. The JSON shape is part of the HTTP API.
type Result struct {
	Type            string   `json:"type"`
	AttackerID      string   `json:"attackerId"`
	DefenderID      string   `json:"defenderId"`
	Rounds          []Round  `json:"rounds"`
	FinalWinnerID   string   `json:"finalWinnerId"`
	FinalLoserID    string   `json:"finalLoserId"`
	FinalWinnerName string   `json:"finalWinnerName"`
	FinalLoserName  string   `json:"finalLoserName"`
	FinalScore      string   `json:"finalScore"`
	Messages        []string `json:"messages"`
	Timestamp       int64    `json:"timestamp"`

	// LoserKind is not serialized; callers use it to pick the kill message.
	LoserKind entity.Kind `json:"-"`
}

// Summary is the closing line of the battle log.
func (r *Result) Summary() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}

// Resolver runs three-round weighted battles. It is not safe for concurrent
// use; the world invokes it while holding its lock.
type Resolver struct {
	rng *rand.Rand
	now func() time.Time
}

func NewResolver(rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{rng: rng, now: time.Now}
}

// WithClock replaces the clock used to stamp results.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// ResolveBattle fights attacker against defender and marks the loser dead with
// zero health. It returns nil if either side is missing. The world registry
// is never touched here.
func (r *Resolver) ResolveBattle(attacker, defender entity.Entity) *Result {
	if isNil(attacker) || isNil(defender) {
		return nil
	}

	rounds := make([]Round, 0, Rounds)
	attackerWins, defenderWins := 0, 0

	for round := 1; round <= Rounds; round++ {
		attackerWeight := weight(attacker, defender)
		defenderWeight := weight(defender, attacker)
		roll := r.rng.Float64() * float64(attackerWeight+defenderWeight)

		winner, loser := defender, attacker
		if roll < float64(attackerWeight) {
			winner, loser = attacker, defender
			attackerWins++
		} else {
			defenderWins++
		}

		rounds = append(rounds, Round{
			Round:    round,
			WinnerID: winner.ID(),
			Message:  fmt.Sprintf("Round %d: %s hits %s", round, winner.Name(), loser.Name()),
		})
	}

	winner, loser := attacker, defender
	if defenderWins > attackerWins {
		winner, loser = defender, attacker
	}

	loser.SetStatus(entity.StatusDead)
	loser.SetHealth(0)

	score := fmt.Sprintf("%d-%d", attackerWins, defenderWins)
	messages := make([]string, 0, len(rounds)+1)
	for _, rd := range rounds {
		messages = append(messages, rd.Message)
	}
	messages = append(messages, fmt.Sprintf("%s defeats %s (%s)", winner.Name(), loser.Name(), score))

	return &Result{
		Type:            "combat",
		AttackerID:      attacker.ID(),
		DefenderID:      defender.ID(),
		Rounds:          rounds,
		FinalWinnerID:   winner.ID(),
		FinalLoserID:    loser.ID(),
		FinalWinnerName: winner.Name(),
		FinalLoserName:  loser.Name(),
		FinalScore:      score,
		Messages:        messages,
		Timestamp:       r.now().UnixMilli(),
		LoserKind:       loser.Kind(),
	}
}

// weight is max(1, health + typeBonus + statusPenalty) for self facing opponent.
// Players get +20, and +70 in total against a non-player.
func weight(self, opponent entity.Entity) int {
	w := self.Health()
	if self.Kind() == entity.KindPlayer {
		w += playerBonus
		if opponent.Kind() != entity.KindPlayer {
			w += playerVsMobEdge
		}
	}
	if self.Status() == entity.StatusDead {
		w += deadPenalty
	}
	return max(minWeight, w)
}

func isNil(e entity.Entity) bool {
	switch v := e.(type) {
	case nil:
		return true
	case *entity.Player:
		return v == nil
	case *entity.Mob:
		return v == nil
	}
	return false
}
