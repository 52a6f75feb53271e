package dml

import (
	"errors"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Statement is one compiled operation of a batch.
type Statement struct {
	OperationID string
	Query       core.ParameterizedQuery
	Preview     string
}

// Plan is the compiled form of an EditBatch.
// Statements keep the order of the batch; operations that failed
// validation or compilation are reported in Errors and left out.
type Plan struct {
	Statements []Statement
	Errors     []core.OperationError
}

// Queries returns the parameterized queries in batch order.
func (p *Plan) Queries() []core.ParameterizedQuery {
	qs := make([]core.ParameterizedQuery, len(p.Statements))
	for i, s := range p.Statements {
		qs[i] = s.Query
	}
	return qs
}

// Previews returns the human-readable statements in batch order.
func (p *Plan) Previews() []string {
	out := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		out[i] = s.Preview
	}
	return out
}

// OperationIDs returns the ids of the operations included in the plan.
func (p *Plan) OperationIDs() []string {
	ids := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		ids[i] = s.OperationID
	}
	return ids
}

// BuildBatch validates and compiles every operation independently.
// One invalid operation never blocks the others.
func BuildBatch(batch *core.EditBatch, d core.Dialect) *Plan {
	plan := &Plan{}
	for _, op := range batch.Operations {
		id := ""
		if op != nil {
			id = op.OperationID()
		}
		if err := Validate(op); err != nil {
			plan.Errors = append(plan.Errors, operationError(id, err))
			continue
		}

		q, err := Compile(op, &batch.Context, d)
		if err != nil {
			plan.Errors = append(plan.Errors, operationError(id, err))
			continue
		}
		preview, err := Preview(op, &batch.Context, d)
		if err != nil {
			plan.Errors = append(plan.Errors, operationError(id, err))
			continue
		}
		plan.Statements = append(plan.Statements, Statement{OperationID: id, Query: q, Preview: preview})
	}
	return plan
}

// BuildPreviewSQL returns the literal statements a batch would run,
// without executing anything.
func BuildPreviewSQL(batch *core.EditBatch, d core.Dialect) ([]string, []core.OperationError) {
	plan := BuildBatch(batch, d)
	return plan.Previews(), plan.Errors
}

func operationError(id string, err error) core.OperationError {
	msg := err.Error()
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message
	}
	return core.OperationError{OperationID: id, Message: msg, Kind: core.KindOf(err)}
}
