package bot

const welcomeText = `🤖 **유입 결과 분석 봇에 오신 것을 환영합니다!**

사용 가능한 명령어:
• /help - 도움말 보기
• /data - 데이터 요약 정보 보기
• /stats - 상세 통계 보기
• /csv - CSV 파일 다운로드
• /tm [구역명] - 특정 구역의 데이터만 보기

시작하려면 /data 명령어를 사용해보세요!`

const helpText = `📖 **명령어 도움말**

🔹 **/start** - 봇 시작 및 환영 메시지
🔹 **/help** - 이 도움말 보기
🔹 **/data** - 기본 데이터 정보 및 요약
🔹 **/stats** - 유입별, 티엠 결과별 상세 통계
🔹 **/csv** - 분석된 데이터를 파일로 다운로드
🔹 **/tm [구역명]** - 특정 구역의 데이터만 조회

📝 **사용 예시:**
• ` + "`/tm 1`" + ` - 유입이 '1구역'인 데이터만 조회
• ` + "`/tm 2`" + ` - 유입이 '2구역'인 데이터만 조회

ℹ️ **참고사항:**
• 데이터는 Google Sheets에서 실시간으로 가져옵니다
• 유입이 빈 값이거나 'J'인 데이터는 제외됩니다
• 티엠 결과는 '신규', '부재중/재티엠', '티엠 예약', '장기'로 분류됩니다`

const tmUsageText = "❌ 유입명을 입력해주세요.\n\n" +
	"사용법: `/TM [유입명]`\n" +
	"예시: `/TM 1구역` 또는 `/TM 인스타그램`"

const (
	progressData  = "📊 데이터를 가져오는 중..."
	progressStats = "📈 상세 통계를 생성하는 중..."
	progressFile  = "📄 %s 파일을 생성하는 중..."
	progressTM    = "🔍 '%s구역' 유입 데이터를 조회하는 중..."

	failData  = "❌ 데이터를 가져오는 중 오류가 발생했습니다:\n%v"
	failStats = "❌ 통계를 생성하는 중 오류가 발생했습니다:\n%v"
	failFile  = "❌ %s 파일을 생성하는 중 오류가 발생했습니다:\n%v"
	failTM    = "❌ '%s' 유입 데이터를 조회하는 중 오류가 발생했습니다:\n%v"

	documentCaption = "📊 유입 결과 분석 데이터\n📅 생성일: %s"
)
