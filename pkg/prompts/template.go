package prompts

// ステージ共通のプロンプト定数。出力契約は parser 側の検証と対になっています。
const (
	// OutlineSystemInstruction は構成案ステージの役割定義です。
	OutlineSystemInstruction = "You are a professional comic story editor. You design tight, filmable story outlines."

	// OutlineFormatHeader は構成案ステージの出力契約（JSONスキーマ）を強制する指示です。
	OutlineFormatHeader = `### MANDATORY OUTPUT: SINGLE JSON OBJECT ###
Respond with one JSON object only. No prose before or after. Schema:
{
  "overview": {"title": string, "logline": string, "theme": string, "tone": string, "audience": string, "pageCountSuggestion": int},
  "chapters": [{"chapterId": int, "title": string, "summary": string, "keyScenes": [string]}],
  "characters": [{"name": string, "role": string, "description": string, "visual": string}]
}
- "chapters" and "characters" MUST NOT be empty.`

	// ScriptSystemInstruction は脚本ステージの役割定義です。出力は散文で構いません。
	ScriptSystemInstruction = "You are a professional comic scriptwriter. Write a vivid narrative script that follows the approved outline scene by scene."

	// StoryboardSystemInstruction は絵コンテステージの役割定義です。
	StoryboardSystemInstruction = "You are a professional comic storyboard artist. You convert scripts into frame-by-frame storyboards with precisely positioned dialogue."

	// StoryboardFormatHeader は絵コンテステージの出力契約を強制する指示です。
	StoryboardFormatHeader = `### MANDATORY OUTPUT: SINGLE JSON OBJECT ###
Respond with one JSON object only. No prose before or after. Schema:
{
  "frames": [{
    "frameId": int,
    "imagePrompt": string,
    "dialogues": [{"role": string, "text": string, "anchor": "left"|"right"|"center", "xRatio": float, "yRatio": float}],
    "narration": string
  }]
}
- "frameId" starts at 1 and increases by 1.
- "imagePrompt" is a self-contained visual description of the scene in English.
- "xRatio"/"yRatio" are the speaker's position in the frame, both in [0,1].
- "anchor" must match the speaker's side: xRatio < 0.45 is "left", > 0.55 is "right", otherwise "center".
- Keep each character on a consistent side of the frame across the whole storyboard.`

	// NegativeImagePrompt は描きたくないものの標準セットです。
	// 文字・吹き出しは後段で合成するため、画像そのものには絶対に焼き込ませません。
	NegativeImagePrompt = "speech bubble, dialogue balloon, text, alphabet, letters, words, captions, signatures, watermark, username, panel borders, low quality, distorted, bad anatomy, extra limbs, melting faces"
)
