package lda

import "strings"

// Instructions and task prompt sent to the remote agent. These are a contract
// with the agent, not executed locally: they name the required output files
// and figure-quality constraints, and keep the answer in Korean (the site's
// language) regardless of the input language.

const systemInstructions = "너는 한국어로 답하는 데이터 분석가다. 반드시 python tool로 LDA를 수행하고 파일을 생성하라."

const basePrompt = `너는 데이터 분석가다. 제공된 CSV 파일로 LDA 토픽 모델링을 수행하고 그래프/결과파일을 생성하라.

[입력 CSV 형식]
- (우선) 'tokens' 컬럼이 있으면: 각 행의 tokens는 공백으로 구분된 토큰 문자열이다.
- (그 외) 헤더 없는 토큰 리스트 CSV로 보고, 각 행의 각 셀을 토큰으로 취급한다.
- 빈 토큰/NaN 제거, 길이 1 토큰 제거.

[요구사항]
1) 바이그램 적용(가능하면 gensim Phrases/Phraser).
2) 후보 K={8,10,12,15}로 모델 학습 후 가능한 경우 Coherence(c_v)로 최적 K 선택.
3) 최종 K로 LDA 학습.
4) 아래 파일을 반드시 현재 작업 디렉토리에 저장:
   - coherence_by_k.png
   - topic_prevalence.png
   - topics.csv (topic_id, term, weight 상위 20)
   - doc_topic.csv (문서별 토픽 확률)
   - 가능하면 topic_terms_topic{i}.png (토픽별 상위 단어 막대그래프)
5) 한국어로 (a) 최적 K (b) 토픽 요약(각 1줄)만 간단히 출력하라.
시각화는 Matplotlib로 하고, 한글이 깨지거나 잘리지 않도록 (1) 사용 가능한 한글 폰트를 자동 탐색해 설정하고, (2) 모든 savefig에 bbox_inches="tight", pad_inches=0.2, dpi>=200, tight_layout()을 적용하라`

// fallbackAnswer replaces an empty summary after a completed run.
const fallbackAnswer = "[완료] 실행은 끝났지만 요약 텍스트가 비어 있습니다."

func buildPrompt(extraInstruction string) string {
	prompt := basePrompt
	if extra := strings.TrimSpace(extraInstruction); extra != "" {
		prompt += "\n\n[추가 지시]\n" + extra
	}
	return prompt
}
