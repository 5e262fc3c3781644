// Package models defines the core domain models for the Kashta trip planner.
//
// # Stored Models
//
// The following models are persisted by the storage layer:
//   - Event: a trip or gathering that participants join
//   - Participant: a person who can join events and pay for items
//   - Item: a shared supply (tent, fuel, food) that can be brought to events
//   - Contribution: an item brought to one event, optionally paid for by a participant
//   - SettlementRecord: a debtor→creditor transfer with its paid/unpaid flag
//   - ActivityLogEntry: an append-only audit row written when a transfer is toggled
//
// # Derived Models
//
// The following models are recomputed on every read and never stored:
//   - ParticipantBalance: one participant's paid total, fair share and net balance
//   - EventSettlement: the full settlement view of one event
//   - ParticipantDebtSummary / ParticipantDebtPortfolio: cross-event aggregation
//
// # Design Principles
//
// 1. **Exact money**: every amount is a decimal.Decimal, never a float64
// 2. **Avoid circular references**: relationships are ID strings, not pointers
// 3. **Validate at the boundary**: the storage layer rejects malformed rows so the
//    settlement engine can assume non-null, non-negative values
package models
