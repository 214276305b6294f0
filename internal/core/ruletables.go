package core

import (
	"regexp"

	"github.com/yishu-dev/yishu/pkg/models"
)

// Analysis thresholds. Lengths are in characters.
const (
	shortAnswerRunes         = 50
	longAnswerRunes          = 200
	completenessBucketPoints = 25
	completeThreshold        = 75
	maxHints                 = 5
	minSuggestionRunes       = 10
)

// Key information patterns, one slice per facet.
var (
	keywordPatterns = compileAll(
		`第一次`, `最重要`, `最难忘`, `最喜欢`, `最讨厌`,
		`学会`, `明白`, `理解`, `发现`, `意识到`,
	)

	emotionPatterns = compileAll(
		`开心|快乐|高兴|兴奋|满足|幸福`,
		`难过|伤心|痛苦|失望|沮丧|悲伤`,
		`愤怒|生气|恼火|愤慨`,
		`恐惧|害怕|担心|焦虑|紧张`,
		`感动|温暖|感激|欣慰`,
	)

	timePatterns = compileAll(
		`\d{4}年`, `\d+岁`, `小时候`, `童年`, `青春期`,
		`大学时期`, `工作后`, `结婚后`, `现在`, `当时`,
	)

	peoplePatterns = compileAll(
		`父亲|爸爸|母亲|妈妈|父母`,
		`老师|同学|朋友|同事`,
		`哥哥|姐姐|弟弟|妹妹`,
		`爷爷|奶奶|外公|外婆`,
		`老公|老婆|丈夫|妻子`,
	)

	// Administrative place names are a two-character stem plus 市, 县 or 区.
	placePatterns = compileAll(
		`家里|学校|公司|办公室`,
		`北京|上海|广州|深圳`,
		`\p{Han}{2}[市县区]`,
	)
)

// Completeness markers.
var (
	completenessEmotion    = regexp.MustCompile(`开心|难过|兴奋|失望|感动|愤怒|恐惧|满足`)
	completenessDetail     = regexp.MustCompile(`具体|详细|比如|例如|当时|那时`)
	completenessReflection = regexp.MustCompile(`觉得|认为|明白|理解|学会|意识到`)
)

const (
	suggestLength     = "可以再详细一些，增加具体描述"
	suggestEmotion    = "可以加入当时的情感感受"
	suggestDetail     = "可以添加更多具体的细节"
	suggestReflection = "可以分享你的思考和感悟"
)

type triggerCategory struct {
	name     string
	keywords []string
	prompts  []string
}

// followUpTriggers is evaluated in order; each matching category adds one prompt.
var followUpTriggers = []triggerCategory{
	{
		name:     "family",
		keywords: []string{"父母", "家人", "家庭", "亲情", "兄弟", "姐妹"},
		prompts: []string{
			"能详细说说这对你的影响吗？",
			"这个经历改变了你什么？",
			"现在回想起来有什么不同的感受？",
		},
	},
	{
		name:     "challenge",
		keywords: []string{"困难", "挑战", "挫折", "失败", "问题", "障碍"},
		prompts: []string{
			"当时是如何克服这个困难的？",
			"这个挑战教会了你什么？",
			"如果重新面对，你会怎么做？",
		},
	},
	{
		name:     "success",
		keywords: []string{"成功", "成就", "胜利", "突破", "获得", "实现"},
		prompts: []string{
			"这个成功对你意味着什么？",
			"成功背后有什么不为人知的故事？",
			"你觉得成功的关键因素是什么？",
		},
	},
	{
		name:     "regret",
		keywords: []string{"后悔", "遗憾", "错过", "失去", "可惜", "如果"},
		prompts: []string{
			"如果能重来，你会做出不同的选择吗？",
			"这个经历给你什么启示？",
			"你想对当时的自己说什么？",
		},
	},
}

type emotionBucket struct {
	emotion  models.Emotion
	keywords []string
	prompts  []string
}

// emotionBuckets is checked in order and the first match wins.
var emotionBuckets = []emotionBucket{
	{
		emotion:  models.EmotionPositive,
		keywords: []string{"开心", "快乐", "兴奋", "满足", "骄傲", "感激", "幸福", "温暖"},
		prompts:  []string{"这种快乐的感觉持续了多久？", "是什么让这个时刻如此特别？"},
	},
	{
		emotion:  models.EmotionNegative,
		keywords: []string{"难过", "痛苦", "失望", "愤怒", "恐惧", "焦虑", "后悔", "孤独"},
		prompts:  []string{"是什么帮助你度过了这段困难时期？", "现在回想这段经历有什么感受？"},
	},
	{
		emotion:  models.EmotionGrowth,
		keywords: []string{"学会", "成长", "改变", "领悟", "明白", "理解", "进步", "突破"},
		prompts:  []string{"这个成长过程中最关键的转折点是什么？", "你会把这个经验分享给别人吗？"},
	},
}

var (
	elaboratePrompts = []string{"能再详细说说吗？", "还有其他想补充的吗？"}
	summarizePrompts = []string{"这段经历中最重要的是什么？", "如果用一句话总结，会是什么？"}
)

var depthQuestions = map[models.Stage][]string{
	models.StageChildhood: {
		"这个经历对你的性格形成有什么影响？",
		"你觉得童年的这段经历如何塑造了现在的你？",
		"如果要对童年的自己说一句话，你会说什么？",
	},
	models.StageEducation: {
		"这段求学经历最大的收获是什么？",
		"哪个老师或同学对你影响最深？为什么？",
		"你觉得教育的真正意义是什么？",
	},
	models.StageCareer: {
		"这个职业决定背后的深层原因是什么？",
		"工作中最有成就感的时刻是什么？",
		"你对年轻人的职业建议是什么？",
	},
	models.StageRelationship: {
		"这段关系教会了你什么关于爱的道理？",
		"你觉得维持好关系的秘诀是什么？",
		"这个人在你生命中的意义是什么？",
	},
	models.StageReflection: {
		"这个价值观是如何形成的？",
		"你希望这个智慧能传递给下一代吗？",
		"如果总结你的人生哲学，会是什么？",
	},
}

var stageHints = map[models.Stage][]string{
	models.StageChildhood: {
		"可以从感官体验开始描述（看到、听到、闻到）",
		"想想当时的年龄和心理状态",
		"回忆周围环境和其他人的反应",
	},
	models.StageEducation: {
		"可以描述学习环境和氛围",
		"想想老师和同学的影响",
		"回忆重要的学习时刻",
	},
	models.StageCareer: {
		"可以分析决策的利弊",
		"想想职业发展的关键节点",
		"回忆工作中的成就和挫折",
	},
	models.StageRelationship: {
		"可以描述关系的发展过程",
		"想想这段关系的独特之处",
		"回忆重要的共同经历",
	},
	models.StageReflection: {
		"可以从具体事例说起",
		"想想价值观的形成过程",
		"回忆重要的人生感悟时刻",
	},
}

// Only the first three stages have typing suggestions.
var contentSuggestions = map[models.Stage][]string{
	models.StageChildhood: {
		"可以描述当时的具体场景和感受",
		"想想这个经历对你性格的影响",
		"回忆一下当时周围人的反应",
	},
	models.StageEducation: {
		"可以谈谈这段经历的转折点",
		"想想从中学到的重要道理",
		"回忆对你影响最大的人或事",
	},
	models.StageCareer: {
		"可以分享决策背后的考虑",
		"想想这个选择的长远影响",
		"回忆当时面临的挑战和机遇",
	},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}
