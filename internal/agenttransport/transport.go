// Package agenttransport defines the AgentTransport capability: deliver a
// typed request to a named agent and block until a matching typed response
// arrives, with soft-timeout resend and hard-timeout escalation to a local
// fallback agent. Two concrete wire bindings (queuebus, wsbus) and the
// fallback agent itself all satisfy the same Transport interface.
package agenttransport

import (
	"context"

	"github.com/qingwen-guan/allied-citadels/internal/domain"
	"github.com/qingwen-guan/allied-citadels/internal/obs"
)

// Kind names which ChooseXxx/WaitForReady variant a Request/Response carries.
type Kind string

const (
	WaitForReady       Kind = "wait_for_ready"
	ChooseInitCard     Kind = "choose_init_card"
	ChooseRole         Kind = "choose_role"
	ChooseKillTarget   Kind = "choose_kill_target"
	ChooseStealTarget  Kind = "choose_steal_target"
	ChooseMagicTarget  Kind = "choose_magic_target"
	ChooseDestroyTarget Kind = "choose_destroy_target"
	ChooseTomb         Kind = "choose_tomb"
	ChooseOper         Kind = "choose_oper"
	ChooseFrom2        Kind = "choose_from_2"
	ChooseFrom3        Kind = "choose_from_3"
)

// Request is the envelope the engine sends to an agent. Only the fields
// relevant to Kind are populated; the rest are zero.
type Request struct {
	ID      uint32     `json:"id"`
	Kind    Kind       `json:"kind"`
	Obs     obs.Obs    `json:"obs"`
	Cards2  [2]*domain.Card        `json:"cards2,omitempty"`
	Cards3  [3]*domain.Card        `json:"cards3,omitempty"`
	Roles   []domain.Role          `json:"roles,omitempty"`
	DestroyChoices []domain.DestroyTarget `json:"destroy_choices,omitempty"`
	Card    *domain.Card           `json:"card,omitempty"`
	Opers   []domain.Oper          `json:"opers,omitempty"`
}

// Response mirrors Request with the chosen value; only the field relevant to
// Kind is populated.
type Response struct {
	ID   uint32 `json:"id"`
	Kind Kind   `json:"kind"`

	Card          *domain.Card         `json:"card,omitempty"`
	Role          *domain.Role         `json:"role,omitempty"`
	MagicSkill    *domain.MagicianSkill `json:"magic_skill,omitempty"`
	DestroyTarget *domain.DestroyTarget `json:"destroy_target,omitempty"`
	Oper          *domain.Oper         `json:"oper,omitempty"`
	// Accept answers ChooseTomb's yes/no decision.
	Accept *bool `json:"accept,omitempty"`
}

// Transport is the single capability both wire bindings and the fallback
// agent implement: deliver req to agentID and block for its response.
type Transport interface {
	Request(ctx context.Context, agentID string, req Request) (Response, error)
}
