// Package vocab holds the fixed enumerated vocabularies used for fuzzy
// filter matching and image classification.
package vocab

import "github.com/civic-cloud/lostfound/internal/domain"

// Municipalities is the fixed set of intake locations. createUserPlace values
// are drawn from this list.
var Municipalities = []string{
	"旭川市",
	"函館市",
	"小樽市",
	"千歳市",
	"苫小牧市",
	"室蘭市",
	"北見市",
	"札幌駅",
}

// Categories is the fixed set of item middle-category names.
var Categories = []string{
	"手提げかばん",
	"財布",
	"傘",
	"時計",
	"メガネ",
	"携帯電話",
	"カメラ",
	"鍵",
	"本",
	"アクセサリー",
	"携帯音響品",
}

// Colors is the fixed set of color names the image classifier may answer with.
var Colors = []string{
	"黒",
	"白",
	"赤",
	"青",
	"緑",
	"黄",
	"茶",
	"灰",
	"銀",
	"金",
	"ピンク",
	"紫",
}

// ColorID maps a canonical color name to its master identifier.
func ColorID(name string) (string, bool) {
	id, ok := colorIDs[name]
	return id, ok
}

var colorIDs = map[string]string{
	"黒":    "black",
	"白":    "white",
	"赤":    "red",
	"青":    "blue",
	"緑":    "green",
	"黄":    "yellow",
	"茶":    "brown",
	"灰":    "gray",
	"銀":    "silver",
	"金":    "gold",
	"ピンク":  "pink",
	"紫":    "purple",
}

// MunicipalityShots are the few-shot examples for location matching.
var MunicipalityShots = []domain.FewShot{
	{Input: "北見", Output: "北見市"},
	{Input: "札幌", Output: "札幌駅"},
	{Input: "ちとせ", Output: "千歳市"},
	{Input: "はこだて", Output: "函館市"},
}

// CategoryShots are the few-shot examples for category matching.
var CategoryShots = []domain.FewShot{
	{Input: "グラサン", Output: "メガネ"},
	{Input: "スマホ", Output: "携帯電話"},
	{Input: "ウォッチ", Output: "時計"},
	{Input: "教科書", Output: "本"},
}

// Contains reports whether v is a member of the given vocabulary.
func Contains(vocabulary []string, v string) bool {
	for _, m := range vocabulary {
		if m == v {
			return true
		}
	}
	return false
}
