package prompt

const jsonOnlyDirective = "Respond with a single JSON object only. Do not wrap it in markdown, do not add commentary before or after it."

const styleSystem = "You are a personal image consultant who reads profile photos and describes the visual identity a person is aiming for. All string values you produce are written in natural Korean."

const styleTemplate = `The attached %d image(s) show the look the user aspires to (their "추구미"). Study them together and describe the shared style.

Return JSON with exactly this shape:
{
  "main_message": "one sentence that captures the overall aspiration",
  "keywords": ["3 to 6 short style keywords"],
  "profile_traits": {
    "mood": "overall mood and atmosphere",
    "fashion_style": "clothing and styling",
    "color_tone": "dominant palette and color temperature",
    "expression_pose": "facial expression, gaze and pose",
    "background_setting": "location, lighting and background"
  },
  "behavior_summary": "what kind of person this look suggests",
  "ai_comment": "a short friendly comment to the user"
}

Example:
{
  "main_message": "햇살 아래 자연스럽고 편안한 일상을 보여주는 분위기",
  "keywords": ["내추럴", "웜톤", "캐주얼", "자연광"],
  "profile_traits": {
    "mood": "따뜻하고 여유로운 분위기",
    "fashion_style": "린넨 셔츠와 니트 위주의 캐주얼룩",
    "color_tone": "베이지와 브라운 계열의 웜톤",
    "expression_pose": "카메라를 살짝 비껴보는 옅은 미소",
    "background_setting": "창가 자연광이 드는 카페나 야외 공원"
  },
  "behavior_summary": "꾸미지 않은 듯한 자연스러움을 중시하는 사람",
  "ai_comment": "부드러운 햇살과 웜톤 컬러를 살리면 지금 추구미에 더 가까워질 거예요!"
}

Example:
{
  "main_message": "도회적이고 세련된 시크함이 돋보이는 분위기",
  "keywords": ["시티", "모노톤", "미니멀", "시크"],
  "profile_traits": {
    "mood": "차갑지만 자신감 있는 분위기",
    "fashion_style": "블랙 코트와 슬랙스의 미니멀 룩",
    "color_tone": "블랙과 그레이 중심의 쿨톤",
    "expression_pose": "정면을 응시하는 무표정, 곧은 자세",
    "background_setting": "야경이나 콘크리트 건물 앞"
  },
  "behavior_summary": "자기 관리가 철저하고 취향이 분명한 사람",
  "ai_comment": "대비가 강한 조명을 활용하면 시크한 느낌이 더 살아나요."
}

` + jsonOnlyDirective

const comparisonSystem = "You are a personal image consultant who compares a profile photo with the look the user aspires to. All string values you produce are written in natural Korean."

const comparisonTemplate = `The attached image is the user's current profile photo. Their aspiration ("추구미") is summarised below.

Aspiration summary:
%s

Compare the photo against the aspiration. distance_to_chugumi is a number from 0 to 50 where 0 means the photo already matches the aspiration perfectly and 50 means it is completely different.

Return JSON with exactly this shape:
{
  "distance_to_chugumi": 0,
  "distance_evaluation": "one short verdict about how close the photo is",
  "detailed_interpretation": "a few sentences comparing mood, styling, color, pose and background",
  "matching_points": ["what already matches"],
  "improvement": "the single most effective change, phrased as a concrete instruction for editing this photo"
}

Example:
{
  "distance_to_chugumi": 14,
  "distance_evaluation": "추구미와 꽤 가까워요",
  "detailed_interpretation": "따뜻한 색감과 자연스러운 표정은 추구미와 잘 맞지만, 실내 형광등 조명 때문에 분위기가 다소 차갑게 느껴집니다.",
  "matching_points": ["웜톤 의상", "자연스러운 미소"],
  "improvement": "배경을 햇살이 드는 창가로 바꾸고 전체 톤을 따뜻하게 보정해 주세요"
}

Example:
{
  "distance_to_chugumi": 37,
  "distance_evaluation": "추구미와 거리가 있어요",
  "detailed_interpretation": "추구미는 모노톤의 도회적인 분위기인데, 현재 사진은 파스텔 색감의 야외 배경이라 인상이 크게 다릅니다.",
  "matching_points": ["정면 구도"],
  "improvement": "배경을 도시 야경으로 바꾸고 채도를 낮춰 모노톤 느낌을 살려 주세요"
}

` + jsonOnlyDirective

const translationSystem = "Translate the following %s text into natural, concise English suitable as an instruction for an image editing model. Keep only the requested change to the photo. Return only the English instruction."

const naturalBackgroundTemplate = "A photorealistic background plate for a profile photo, with no people and no text. Natural light, shallow depth of field, a real-world location. The scene should express this aspiration: %s."

const artisticBackgroundTemplate = "An artistic painterly background for a profile photo, with no people and no text. Soft brush strokes and an illustrative composition. The scene should express this aspiration: %s."

const backgroundDirection = " Direction from the profile review: %s."
