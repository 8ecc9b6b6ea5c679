package content

import (
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// Table maps (mood, step) to the scripted transcript for that step.
type Table map[session.Mood]map[session.Step][]*schema.Message

// Seed provides the default guided content for every mood.
func Seed() Table {
	return Table{
		session.MoodHappy: {
			1: {
				system("I see you're feeling happy today. Let's build on that positive energy."),
				system("Take a moment to smile, and notice how that feels in your body. Allow your breath to deepen naturally."),
				user("I'm ready to continue."),
			},
			2: {
				system("Wonderful! Here's a joy-enhancing affirmation for you:"),
				system("\"I am grateful for this moment of joy, and I choose to carry this feeling with me throughout my day.\""),
				system("Repeat this affirmation to yourself, and notice how it amplifies your positive feelings."),
				user("I've done the affirmation."),
			},
			3: {
				system("How do you feel after our session today?"),
				user("I feel even more positive now."),
				system("That's wonderful! When you're already feeling good, it's a perfect time to:"),
				system("- Share your positive energy with others\n- Tackle a challenge you've been postponing\n- Express gratitude to someone important to you"),
				system("Happiness is a resource you can draw from and share freely."),
				user("Thank you for this session."),
				system("Would you like to start another session or end here?"),
			},
		},
		session.MoodOkay: {
			1: {
				system("I see you're feeling okay today. Let's take a moment to center ourselves."),
				system("Take a deep breath in... and out. Feel your body relax with each breath."),
				user("I'm ready to continue."),
			},
			2: {
				system("Here's a helpful affirmation for when you're feeling balanced but could use a boost:"),
				system("\"I acknowledge where I am right now, and I know I have the power to move toward where I want to be.\""),
				system("Take a moment to repeat this to yourself, either out loud or mentally."),
				user("I've done the affirmation."),
			},
			3: {
				system("How do you feel after our session today?"),
				user("I feel more centered now."),
				system("That's wonderful to hear! Here are some things you might consider for the rest of your day:"),
				system("- Take short mindfulness breaks\n- Stay hydrated\n- Connect with a friend or loved one"),
				system("Remember, each moment is an opportunity to check in with yourself."),
				user("Thank you, this was helpful."),
				system("You're welcome! Would you like to start another session or end here?"),
			},
		},
		session.MoodStressed: {
			1: {
				system("I see you're feeling stressed today. Let's take a moment to acknowledge that and create some space for relief."),
				system("Take a slow, deep breath in through your nose for a count of 4... hold for 1... and exhale through your mouth for a count of 6. Let's repeat this three times."),
				user("I've completed the breathing exercise."),
			},
			2: {
				system("When we're feeling stressed, it helps to ground ourselves with a calming affirmation:"),
				system("\"This feeling is temporary. I am stronger than my stress, and I can choose peace in this moment.\""),
				system("As you repeat this affirmation, place a hand on your heart and feel the connection between your words and your body."),
				user("I've practiced the affirmation."),
			},
			3: {
				system("How are you feeling now compared to when we started?"),
				user("I'm feeling calmer than before."),
				system("I'm glad to hear that. When stress is present, these simple practices can help you regain balance:"),
				system("- Take a short walk outside if possible\n- Limit caffeine and stay hydrated\n- Write down what's on your mind\n- Reach out to a supportive person"),
				system("Remember that managing stress is an ongoing practice, not a one-time solution."),
				user("I appreciate these suggestions."),
				system("Would you like to start another session or end here?"),
			},
		},
	}
}
