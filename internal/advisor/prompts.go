package advisor

import (
	"fmt"
	"strings"

	"github.com/poselens/poselens/internal/imaging"
)

// Language selectors for the analysis instruction.
const (
	LanguageEN = "en"
	LanguageVI = "vi"
)

const analysisPromptEN = `You are a professional photography expert.
Analyze this photo and give concrete instructions to improve the next shot.

Hard requirements:
1. Focus every item on WHAT TO DO, as an action.
2. Split the advice into 3 groups: Light; Subject (mostly pose adjustments for hands, legs, face, torso to best fit the background); Technical settings (ISO, Speed, EV) with concrete numbers.
3. Each group needs at least 2 extremely short bullet items (under 10 words each).
4. Respond with pure JSON only, exactly this structure:
{
  "analysis": {
    "light": ["item 1", "item 2"],
    "subject": ["item 1", "item 2"],
    "tech": ["item 1", "item 2"]
  },
  "pose_prompt": "optional: an image-generation prompt describing the corrected pose"
}`

const analysisPromptVI = `Bạn là một chuyên gia nhiếp ảnh chuyên nghiệp.
Hãy phân tích ảnh này và đưa ra hướng dẫn cụ thể để cải thiện bức ảnh tiếp theo.

Yêu cầu bắt buộc:
1. Nội dung tập trung vào hành động "PHẢI LÀM GÌ".
2. Chia thành 3 nhóm: Ánh sáng; Chủ thể (chủ yếu điều chỉnh tư thế, tay, chân, mặt, thân mình ...) để ảnh đẹp nhất hợp với phông nền nhất; Thông số kỹ thuật (ISO, Speed, EV) cụ thể bằng số.
3. Mỗi nhóm có ít nhất 2 gạch đầu dòng cực ngắn gọn (dưới 10 từ mỗi dòng).
4. Phản hồi dưới dạng JSON thuần túy theo cấu trúc sau:
{
  "analysis": {
    "light": ["Gạch đầu dòng 1", "Gạch đầu dòng 2"],
    "subject": ["Gạch đầu dòng 1", "Gạch đầu dòng 2"],
    "tech": ["Gạch đầu dòng 1", "Gạch đầu dòng 2"]
  },
  "pose_prompt": "tùy chọn: một prompt tạo ảnh mô tả tư thế đã chỉnh sửa"
}`

// analysisPrompt selects the instruction template for the given language and
// appends the capture context when EXIF data was available. Unknown languages
// fall back to English.
func analysisPrompt(language string, capture *imaging.CaptureContext) string {
	prompt := analysisPromptEN
	captureLabel := "Camera used"
	if language == LanguageVI {
		prompt = analysisPromptVI
		captureLabel = "Thiết bị chụp"
	}

	if line := capture.PromptLine(); line != "" {
		prompt += fmt.Sprintf("\n\n%s: %s", captureLabel, line)
	}
	return prompt
}

// refinePrompt builds the follow-up instruction for the pose-refinement turn.
// It tells the model to drop the JSON contract from turn one and answer with
// nothing but a plain-text image-generation prompt; the required keywords are
// spelled out here, which is why the refinement path does not re-append the
// style suffix to the result.
func refinePrompt(poseSummary string) string {
	var sb strings.Builder
	sb.WriteString("Important: Forget the previous JSON format.\n")
	sb.WriteString("Context: You saw that my image was weak as a person pose reference.")
	if summary := strings.TrimSpace(poseSummary); summary != "" {
		sb.WriteString(" Requested adjustments: ")
		sb.WriteString(summary)
		sb.WriteString(".")
	}
	sb.WriteString("\n")
	sb.WriteString("Task: Write a highly detailed Image Generation Prompt for a 3D wooden mannequin that fixes the person's pose.\n")
	sb.WriteString(`Required keywords: "3D wooden mannequin, articulated joints, studio lighting, solid grey background, minimalist, high quality, photorealistic wood texture".` + "\n")
	sb.WriteString("Constraint: Output ONLY the English prompt string.")
	return sb.String()
}
