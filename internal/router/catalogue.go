// Package router parses a user utterance into (targetAssistant, residual
// task), against a declarative, data-driven catalogue of named regex
// patterns rather than branching code — the catalogue is the source of
// truth for every supported language and intent family.
package router

import "regexp"

// assistantToken matches a bare identifier-like assistant name: letters,
// digits, underscore, or hyphen, starting with a letter.
const assistantToken = `([\p{L}][\p{L}\p{N}_-]*)`

// Pattern is one named, ordered entry in the intent-routing catalogue.
type Pattern struct {
	Language       string
	Name           string
	Regex          *regexp.Regexp
	AssistantGroup int
	TaskGroup      int
	// Template is the reverse-rendering template used by RenderUtterance,
	// with two %s verbs: assistant name, then task text.
	Template string
}

func mustPattern(language, name, expr string, assistantGroup, taskGroup int, template string) Pattern {
	return Pattern{
		Language:       language,
		Name:           name,
		Regex:          regexp.MustCompile(expr),
		AssistantGroup: assistantGroup,
		TaskGroup:      taskGroup,
		Template:       template,
	}
}

// Catalogue is the ordered list of patterns applied by Route, most specific
// first: polite request, then imperative delegation, then direct
// addressing, covering English, Chinese, Japanese, Korean, German, French,
// Spanish, Italian, Portuguese, Russian, Arabic, and Turkish.
var Catalogue = buildCatalogue()

func buildCatalogue() []Pattern {
	var patterns []Pattern
	patterns = append(patterns, politePatterns()...)
	patterns = append(patterns, imperativePatterns()...)
	patterns = append(patterns, directAddressingPatterns()...)
	return patterns
}

// politePatterns covers family 3: "please use <assistant> to <task>" and
// native-language equivalents.
func politePatterns() []Pattern {
	return []Pattern{
		mustPattern("en", "polite-please-use", `(?i)^please\s+use\s+`+assistantToken+`\s+to\s+(.+)$`, 1, 2, "please use %s to %s"),
		mustPattern("en", "polite-could-you-ask", `(?i)^could\s+you\s+ask\s+`+assistantToken+`\s+to\s+(.+)$`, 1, 2, "could you ask %s to %s"),
		mustPattern("zh", "polite-qing-yong-bangwo", `^请用`+assistantToken+`帮我(.+)$`, 1, 2, "请用%s帮我%s"),
		mustPattern("zh", "polite-qing-tiaoyong-lai", `^请调用`+assistantToken+`来(.+)$`, 1, 2, "请调用%s来%s"),
		mustPattern("ja", "polite-onegaishimasu", `^`+assistantToken+`に(.+)をお願いします$`, 1, 2, "%sに%sをお願いします"),
		mustPattern("ko", "polite-jusigessoyo", `^`+assistantToken+`에게\s*(.+)을?\s*부탁드립니다$`, 1, 2, "%s에게 %s을 부탁드립니다"),
		mustPattern("de", "polite-bitte-verwende", `(?i)^bitte\s+verwende\s+`+assistantToken+`,?\s+um\s+(.+)\s+zu\s+erledigen$`, 1, 2, "bitte verwende %s, um %s zu erledigen"),
		mustPattern("fr", "polite-pourriez-vous", `(?i)^pourriez-vous\s+demander\s+à\s+`+assistantToken+`\s+de\s+(.+)$`, 1, 2, "pourriez-vous demander à %s de %s"),
		mustPattern("es", "polite-por-favor-usa", `(?i)^por\s+favor\s+usa\s+`+assistantToken+`\s+para\s+(.+)$`, 1, 2, "por favor usa %s para %s"),
		mustPattern("it", "polite-per-favore-usa", `(?i)^per\s+favore\s+usa\s+`+assistantToken+`\s+per\s+(.+)$`, 1, 2, "per favore usa %s per %s"),
		mustPattern("pt", "polite-por-favor-use", `(?i)^por\s+favor[,]?\s+use\s+`+assistantToken+`\s+para\s+(.+)$`, 1, 2, "por favor, use %s para %s"),
		mustPattern("ru", "polite-pozhaluysta-ispolzuy", `(?i)^пожалуйста,?\s+используй\s+`+assistantToken+`,?\s+чтобы\s+(.+)$`, 1, 2, "пожалуйста, используй %s, чтобы %s"),
		mustPattern("ar", "polite-min-fadlik", `^من\s+فضلك\s+استخدم\s+`+assistantToken+`\s+لـ\s*(.+)$`, 1, 2, "من فضلك استخدم %s لـ %s"),
		mustPattern("tr", "polite-lutfen-kullan", `(?i)^lütfen\s+`+assistantToken+`(?:'yi|'yı|'ı|'i)?\s+kullanarak\s+(.+)$`, 1, 2, "lütfen %s'yi kullanarak %s"),
	}
}

// imperativePatterns covers family 2: "use <assistant> to <task>" / "ask
// <assistant> to <task>" / "call <assistant> to <task>" and equivalents.
func imperativePatterns() []Pattern {
	return []Pattern{
		mustPattern("en", "imperative-use-to", `(?i)^use\s+`+assistantToken+`\s+to\s+(.+)$`, 1, 2, "use %s to %s"),
		mustPattern("en", "imperative-ask-to", `(?i)^ask\s+`+assistantToken+`\s+to\s+(.+)$`, 1, 2, "ask %s to %s"),
		mustPattern("en", "imperative-call-to", `(?i)^call\s+`+assistantToken+`\s+to\s+(.+)$`, 1, 2, "call %s to %s"),
		mustPattern("en", "imperative-have-do", `(?i)^have\s+`+assistantToken+`\s+do\s+(.+)$`, 1, 2, "have %s do %s"),
		mustPattern("zh", "imperative-yong-lai", `^用`+assistantToken+`来(.+)$`, 1, 2, "用%s来%s"),
		mustPattern("zh", "imperative-diaoyong-lai", `^调用`+assistantToken+`来(.+)$`, 1, 2, "调用%s来%s"),
		mustPattern("ja", "imperative-wo-tsukatte", `^`+assistantToken+`を使って(.+)$`, 1, 2, "%sを使って%s"),
		mustPattern("ko", "imperative-reul-sayonghayeo", `^`+assistantToken+`를?\s*사용해서\s*(.+)$`, 1, 2, "%s를 사용해서 %s"),
		mustPattern("de", "imperative-verwende-um", `(?i)^verwende\s+`+assistantToken+`,?\s+um\s+(.+)\s+zu\s+erledigen$`, 1, 2, "verwende %s, um %s zu erledigen"),
		mustPattern("fr", "imperative-utilise-pour", `(?i)^utilise\s+`+assistantToken+`\s+pour\s+(.+)$`, 1, 2, "utilise %s pour %s"),
		mustPattern("es", "imperative-usa-para", `(?i)^usa\s+`+assistantToken+`\s+para\s+(.+)$`, 1, 2, "usa %s para %s"),
		mustPattern("it", "imperative-usa-per", `(?i)^usa\s+`+assistantToken+`\s+per\s+(.+)$`, 1, 2, "usa %s per %s"),
		mustPattern("pt", "imperative-use-para", `(?i)^use\s+`+assistantToken+`\s+para\s+(.+)$`, 1, 2, "use %s para %s"),
		mustPattern("ru", "imperative-ispolzuy-chtoby", `(?i)^используй\s+`+assistantToken+`,?\s+чтобы\s+(.+)$`, 1, 2, "используй %s, чтобы %s"),
		mustPattern("ar", "imperative-istakhdim", `^استخدم\s+`+assistantToken+`\s+لـ\s*(.+)$`, 1, 2, "استخدم %s لـ %s"),
		mustPattern("tr", "imperative-kullanarak", `(?i)^`+assistantToken+`(?:'yi|'yı|'ı|'i)?\s+kullanarak\s+(.+)$`, 1, 2, "%s'yi kullanarak %s"),
	}
}

// directAddressingPatterns covers family 1: "<assistant>, <task>" /
// "<assistant>: <task>" and the CJK full-width equivalents. This family is
// the most generic (any short token followed by a separator), so it is
// ordered last.
func directAddressingPatterns() []Pattern {
	return []Pattern{
		mustPattern("en", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("en", "direct-colon", `^`+assistantToken+`:\s*(.+)$`, 1, 2, "%s: %s"),
		mustPattern("zh", "direct-fullwidth-comma", `^`+assistantToken+`，(.+)$`, 1, 2, "%s，%s"),
		mustPattern("zh", "direct-fullwidth-colon", `^`+assistantToken+`：(.+)$`, 1, 2, "%s：%s"),
		mustPattern("ja", "direct-fullwidth-comma", `^`+assistantToken+`、(.+)$`, 1, 2, "%s、%s"),
		mustPattern("ko", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("de", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("fr", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("es", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("it", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("pt", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("ru", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
		mustPattern("ar", "direct-comma", `^`+assistantToken+`،\s*(.+)$`, 1, 2, "%s، %s"),
		mustPattern("tr", "direct-comma", `^`+assistantToken+`,\s*(.+)$`, 1, 2, "%s, %s"),
	}
}
