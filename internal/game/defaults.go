package game

// DefaultWords is the built-in word list, used whenever the server is
// started without a word file.
var DefaultWords = []string{
	"apple", "banana", "cherry", "grape", "lemon", "mango", "orange",
	"peach", "pear", "pineapple", "strawberry", "watermelon",
	"airplane", "anchor", "bicycle", "boat", "bridge", "bus", "car",
	"helicopter", "rocket", "sailboat", "submarine", "train", "truck",
	"ant", "bear", "butterfly", "camel", "cat", "crab", "dog", "dolphin",
	"dragon", "duck", "elephant", "fish", "frog", "giraffe", "horse",
	"jellyfish", "kangaroo", "lion", "monkey", "mouse", "octopus", "owl",
	"penguin", "rabbit", "shark", "snail", "snake", "spider", "tiger",
	"turtle", "whale", "zebra",
	"backpack", "balloon", "book", "bottle", "candle", "camera", "chair",
	"clock", "computer", "crown", "cup", "door", "drum", "guitar",
	"hammer", "hat", "key", "ladder", "lamp", "mirror", "pencil",
	"piano", "pillow", "scissors", "shoe", "spoon", "suitcase",
	"telephone", "telescope", "umbrella", "wheel", "window",
	"beach", "bread", "castle", "cloud", "flower", "forest", "house",
	"ice cream", "island", "lighthouse", "lightning", "moon", "mountain",
	"mushroom", "pizza", "rainbow", "river", "sandcastle", "snowman",
	"sun", "tornado", "tree", "volcano", "waterfall",
}
