package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pointpattern/internal/nnindex"
)

func prepareRun(run *Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = RunStatusComplete
		if run.Error != "" {
			run.Status = RunStatusFailed
		}
	}
}

// marshalRun encodes the JSON columns of run. resultJSON is nil when the run
// has no result.
func marshalRun(run *Run) (optionsJSON, resultJSON []byte, err error) {
	optionsJSON, err = json.Marshal(run.Options)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal options")
	}
	if run.Result != nil {
		resultJSON, err = json.Marshal(run.Result)
		if err != nil {
			return nil, nil, eris.Wrap(err, "marshal result")
		}
	}
	return optionsJSON, resultJSON, nil
}

func unmarshalRun(run *Run, optionsJSON, resultJSON []byte) error {
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &run.Options); err != nil {
			return eris.Wrap(err, "unmarshal options")
		}
	}
	if len(resultJSON) > 0 {
		var res nnindex.Result
		if err := json.Unmarshal(resultJSON, &res); err != nil {
			return eris.Wrap(err, "unmarshal result")
		}
		run.Result = &res
	}
	return nil
}
