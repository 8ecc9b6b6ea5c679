package mood

import (
	"strings"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// Decision 给出根据自由文本推断出的心情及其得分。
type Decision struct {
	Mood  session.Mood
	Score int
}

// OK 表示是否得出了有效结论。
func (d Decision) OK() bool {
	return d.Score > 0 && d.Mood.Valid()
}

var keywordBuckets = map[session.Mood][]string{
	session.MoodHappy: {
		"happy", "great", "good", "awesome", "amazing", "excited", "joy", "grateful", "thankful", "love",
		"wonderful", "fantastic", "cheerful", "glad",
		"开心", "高兴", "快乐", "喜悦", "兴奋", "太好了", "太棒了", "满意",
	},
	session.MoodOkay: {
		"okay", "ok", "fine", "alright", "all right", "so-so", "meh", "neutral", "not bad", "average",
		"normal", "calm", "steady",
		"还行", "一般", "还好", "凑合", "平静", "普通",
	},
	session.MoodStressed: {
		"stressed", "stress", "anxious", "anxiety", "worried", "overwhelmed", "tired", "exhausted",
		"nervous", "tense", "panic", "burned out", "burnt out", "pressure", "sad", "upset", "angry",
		"压力", "焦虑", "紧张", "担心", "累", "疲惫", "崩溃", "烦", "难过", "生气",
	},
}

// negations flip a positive reading to the neutral bucket, e.g. "not great".
var negations = []string{"not ", "n't ", "不"}

// Infer 根据用户输入推断最接近的心情，无法判断时 Score 为 0。
func Infer(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{}
	}

	if m, err := session.ParseMood(normalized); err == nil {
		return Decision{Mood: m, Score: 10}
	}

	scores := make(map[session.Mood]int)
	for m, keywords := range keywordBuckets {
		for _, word := range keywords {
			if !strings.Contains(normalized, word) {
				continue
			}
			if m == session.MoodHappy && negated(normalized, word) {
				scores[session.MoodOkay] += 2
				continue
			}
			scores[m] += 3
		}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 0 {
		scores[session.MoodHappy] += exclamations
	}

	best := Decision{}
	// 按固定顺序遍历，保证平分时结果稳定
	for _, m := range session.Moods() {
		if s := scores[m]; s > best.Score {
			best = Decision{Mood: m, Score: s}
		}
	}
	return best
}

func negated(text, word string) bool {
	idx := strings.Index(text, word)
	if idx <= 0 {
		return false
	}
	prefix := text[:idx]
	for _, n := range negations {
		if strings.HasSuffix(prefix, n) {
			return true
		}
	}
	return false
}
