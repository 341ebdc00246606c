// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePeriodRequest: name, end_date
  - CreatePraiseRequest: giver_id, receiver_id, reason, source_id
  - StartQuantificationRequest: quantifiers, seed
  - SubmitQuantificationRequest: score | dismissed | duplicate_of
  - PutSettingRequest: value, type

# Response Types

  - CreatePeriodResponse: period_id, admin_key
  - CreatePraiseResponse: praise_id
  - StartQuantificationResponse: status, seed, assignments
  - SubmitQuantificationResponse: praise_id, quantifier_id, kind
  - ClosePeriodResponse: closed_at, results
  - ErrorResponse: error, message

# Domain Types

  - Period: lifecycle state and optimistic version
  - PraiseItem: one act of recognition and its quantifications
  - Quantification: one quantifier's judgment, tagged by Kind
  - Judgment: the validated submission variant (scored, dismissed, duplicate)
  - QuantifierPool: quantifiers of a period and their assigned items
  - Setting: raw typed key/value configuration
  - ScoringSettings: resolved scoring parameters for a period
  - ItemResult, ReceiverSummary, PeriodResults: closed-period output

# Constants

Period status values:

	StatusOpen     = "open"
	StatusQuantify = "quantify"
	StatusClosed   = "closed"

Quantification kinds:

	KindPending   = "pending"
	KindScored    = "scored"
	KindDismissed = "dismissed"
	KindDuplicate = "duplicate"
*/
package models
