package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	model "github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// ValidationError 描述单个字段的校验失败
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors 汇总一次请求中的全部校验失败
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

// Details 以字符串列表形式返回错误详情
func (e ValidationErrors) Details() []string {
	out := make([]string, 0, len(e))
	for _, v := range e {
		out = append(out, v.Error())
	}
	return out
}

// optionalField 区分字段缺失、显式 null 与具体取值
type optionalField struct {
	Set  bool
	Null bool
	Raw  json.RawMessage
}

func (f *optionalField) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		return nil
	}
	f.Raw = append(f.Raw[:0], data...)
	return nil
}

type createPayload struct {
	Mood      optionalField `json:"mood"`
	Step      optionalField `json:"step"`
	Completed optionalField `json:"completed"`
}

type updatePayload struct {
	Step      optionalField `json:"step"`
	Completed optionalField `json:"completed"`
}

// toNew 校验创建请求；缺省 step=1、completed=false，显式 null 的 step 保持为空。
func (p createPayload) toNew() (model.New, error) {
	var (
		errs ValidationErrors
		in   model.New
	)

	switch {
	case !p.Mood.Set || p.Mood.Null:
		errs = append(errs, ValidationError{Field: "mood", Reason: "is required"})
	default:
		var raw string
		if err := json.Unmarshal(p.Mood.Raw, &raw); err != nil {
			errs = append(errs, ValidationError{Field: "mood", Reason: "must be a string"})
		} else if mood := model.Mood(raw); !mood.Valid() {
			errs = append(errs, ValidationError{Field: "mood", Reason: "must be one of happy, okay, stressed"})
		} else {
			in.Mood = mood
		}
	}

	switch {
	case !p.Step.Set:
		in.Step = model.StepPtr(model.StepFirst)
	case p.Step.Null:
		in.NullStep = true
	default:
		step, err := decodeStep(p.Step.Raw)
		if err != nil {
			errs = append(errs, *err)
		} else {
			in.Step = &step
		}
	}

	if p.Completed.Set && !p.Completed.Null {
		done, err := decodeBool(p.Completed.Raw)
		if err != nil {
			errs = append(errs, *err)
		} else {
			in.Completed = done
		}
	} else if p.Completed.Null {
		errs = append(errs, ValidationError{Field: "completed", Reason: "must be a boolean"})
	}

	if len(errs) > 0 {
		return model.New{}, errs
	}
	return in, nil
}

// toPatch 校验更新请求，两个字段均可省略。
func (p updatePayload) toPatch() (model.Patch, error) {
	var (
		errs  ValidationErrors
		patch model.Patch
	)

	if p.Step.Set {
		if p.Step.Null {
			errs = append(errs, ValidationError{Field: "step", Reason: "must be 1, 2 or 3"})
		} else if step, err := decodeStep(p.Step.Raw); err != nil {
			errs = append(errs, *err)
		} else {
			patch.Step = &step
		}
	}

	if p.Completed.Set {
		if p.Completed.Null {
			errs = append(errs, ValidationError{Field: "completed", Reason: "must be a boolean"})
		} else if done, err := decodeBool(p.Completed.Raw); err != nil {
			errs = append(errs, *err)
		} else {
			patch.Completed = &done
		}
	}

	if len(errs) > 0 {
		return model.Patch{}, errs
	}
	return patch, nil
}

func decodeStep(raw json.RawMessage) (model.Step, *ValidationError) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return model.StepNone, &ValidationError{Field: "step", Reason: "must be an integer"}
	}
	step := model.Step(n)
	if !step.Valid() {
		return model.StepNone, &ValidationError{Field: "step", Reason: "must be 1, 2 or 3"}
	}
	return step, nil
}

func decodeBool(raw json.RawMessage) (bool, *ValidationError) {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, &ValidationError{Field: "completed", Reason: "must be a boolean"}
	}
	return v, nil
}
