package pipeline

import "fmt"

// Stage names the pipeline step that failed.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageProcess  Stage = "process"
	StageStats    Stage = "stats"
	StageExport   Stage = "export"
	StageCategory Stage = "category"
)

var stagePrefix = map[Stage]string{
	StageFetch:    "데이터 가져오기 실패",
	StageProcess:  "데이터 처리 실패",
	StageStats:    "통계 생성 실패",
	StageExport:   "CSV 생성 실패",
	StageCategory: "유입 조회 실패",
}

// Error wraps a failure with the stage it happened in. Use errors.As to reach
// the typed cause (*source.Error, *table.SchemaError, *export.EncodingError).
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	prefix, ok := stagePrefix[e.Stage]
	if !ok {
		prefix = string(e.Stage)
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
