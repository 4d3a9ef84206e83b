package warehouse

import (
	"fmt"
	"strings"

	"sqldeck/internal/catalog"
	"sqldeck/pkg/errors"
)

// DeployRoutine registers a routine's definition statements
func (s *Service) DeployRoutine(r *catalog.Routine) error {
	sqlText := strings.Join(r.Definitions, ";\n")
	if err := s.ExecuteSQL(sqlText, s.config.Database, r.Dataset); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction,
			fmt.Sprintf("Failed to deploy routine %s", r.Name)).
			WithContext("routine", r.Name)
	}
	return nil
}

// DeployView registers a view definition
func (s *Service) DeployView(v *catalog.View) error {
	if err := s.ExecuteSQL(v.SQL, s.config.Database, v.Dataset); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction,
			fmt.Sprintf("Failed to deploy view %s", v.Name)).
			WithContext("view", v.Name)
	}
	return nil
}

// RegisterSchedule creates or replaces the warehouse task refreshing a
// scheduled view into its destination table, then resumes or suspends
// it according to the metadata.
func (s *Service) RegisterSchedule(v *catalog.View) error {
	if v.Metadata == nil || v.Metadata.Scheduling == nil {
		return errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("View %s has no scheduling metadata", v.Name))
	}
	sched := v.Metadata.Scheduling

	taskName := fmt.Sprintf("%s_%s_refresh", v.Dataset, v.LocalName)
	createTask := fmt.Sprintf(
		"CREATE OR REPLACE TASK %s WAREHOUSE = %s SCHEDULE = '%s' AS CREATE OR REPLACE TABLE %s AS SELECT * FROM %s",
		taskName, s.config.Warehouse, sched.TaskSchedule(), sched.DestinationTable, v.Name,
	)

	state := "SUSPEND"
	if sched.Enabled {
		state = "RESUME"
	}
	alterTask := fmt.Sprintf("ALTER TASK %s %s", taskName, state)

	sqlText := createTask + ";\n" + alterTask
	if err := s.ExecuteSQL(sqlText, s.config.Database, v.Dataset); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction,
			fmt.Sprintf("Failed to register schedule for %s", v.Name)).
			WithContext("task", taskName)
	}
	return nil
}

// TestResult is the outcome of one rewritten routine test
type TestResult struct {
	Routine   string
	TestIndex int
	Err       error
}

// Passed reports whether the test succeeded
func (r TestResult) Passed() bool {
	return r.Err == nil
}

// RunTests executes the routine's tests rewritten as temp functions.
// All statements of one test run on a single connection, since
// temporary functions are session-scoped. Returns one result per test.
func (s *Service) RunTests(r *catalog.Routine, known map[string]*catalog.Routine) ([]TestResult, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to warehouse")
	}

	rewritten := catalog.TestStatements(r, known)
	results := make([]TestResult, 0, len(rewritten))

	for i, testSQL := range rewritten {
		err := s.runOnSingleSession(testSQL)
		if err != nil {
			err = errors.Wrap(err, errors.ErrCodeTestFailed,
				fmt.Sprintf("Test %d of %s failed", i+1, r.Name)).
				WithContext("routine", r.Name).
				WithContext("test_index", i+1)
		}
		results = append(results, TestResult{Routine: r.Name, TestIndex: i + 1, Err: err})
	}

	return results, nil
}

func (s *Service) runOnSingleSession(sqlText string) error {
	ctx, cancel := s.getContext()
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConnectionFailed, "Failed to acquire connection")
	}
	defer conn.Close()

	for i, stmt := range catalog.SplitStatements(sqlText) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return errors.SQLError(
				fmt.Sprintf("Statement %d failed", i+1),
				stmt,
				err,
			)
		}
	}
	return nil
}
