package judge

import (
	"strings"
)

// SystemPrompt is sent as the system message on every call.
const SystemPrompt = `너는 한국어로 답하는 'AI 판사'야.
사용자의 사연을 읽고, 가능한 죄명과 근거를 조심스럽게 추정해.
반드시 JSON 객체 하나만 출력하고, 아래 스키마를 정확히 따를 것:
{
  "summary": string,
  "possible_crimes": [
    {"title": string, "basis": string, "severity": "LOW"|"MEDIUM"|"HIGH"}
  ],
  "verdict": string,
  "disclaimer": string
}
severity는 LOW(경미), MEDIUM(중간), HIGH(중대) 중 하나로 쓸 것.
주의:
- 확실하지 않으면 "가능성이 낮음" 같은 완화 표현을 사용
- 사실관계가 부족하면 그 점을 명시
- 단정적 유죄 표현 금지 (가능성/의심/추정 표현 사용)
- 인격 모욕, 혐오 발언 금지
- 법률 자문이 아님을 disclaimer에 명시`

// ComposeUserMessage merges the story with the evidence descriptor lines.
// Without evidence the trimmed story is returned as is.
func ComposeUserMessage(story string, evidence []string) string {
	story = strings.TrimSpace(story)
	if len(evidence) == 0 {
		return story
	}

	var b strings.Builder
	b.WriteString("[사연]\n")
	b.WriteString(story)
	b.WriteString("\n\n[첨부된 증거 파일]\n")
	for _, line := range evidence {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\n참고: 파일 내용은 분석되지 않았으며, 파일 이름과 형식, 크기 같은 메타데이터만 제공되었습니다.")
	return b.String()
}
