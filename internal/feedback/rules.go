package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentgate/assessment-backend/internal/model"
)

const (
	quickFinishSeconds = 15 * 60
	slowFinishSeconds  = 20 * 60
)

// RuleAdvisor replies from fixed templates keyed by topic and result status.
type RuleAdvisor struct{}

func (RuleAdvisor) Advise(_ context.Context, b Brief, message string, _ []model.ChatTurn) (string, error) {
	switch Classify(message) {
	case TopicImprove:
		return improvement(b), nil
	case TopicCareer:
		return career(b), nil
	case TopicNextSteps:
		return nextSteps(b), nil
	case TopicPerformance:
		return performance(b), nil
	default:
		return general(b, message), nil
	}
}

type reply struct{ strings.Builder }

func (r *reply) line(format string, args ...any) {
	fmt.Fprintf(&r.Builder, format, args...)
	r.WriteByte('\n')
}

func (r *reply) bullets(items ...string) {
	for _, it := range items {
		r.line("• %s", it)
	}
	r.WriteByte('\n')
}

func pct(score float64) string {
	return fmt.Sprintf("%.0f%%", score)
}

func improvement(b Brief) string {
	var r reply
	r.line("Based on your %s score and %s status, here's how you can improve:\n", pct(b.Score), b.Status)

	switch b.Status {
	case model.ResultReject:
		r.line("**Focus areas for improvement:**")
		r.bullets(
			"**Strengthen fundamentals**: review basic concepts in your technology track",
			"**Practice regularly**: solve coding problems daily for 30-60 minutes",
			"**Time management**: work on solving problems faster and more efficiently",
			"**Mock assessments**: take practice tests to build confidence",
		)
		switch {
		case b.ElapsedSeconds < quickFinishSeconds:
			r.line("**Time management:** you finished quickly but accuracy suffered. Focus on:")
			r.bullets("Reading questions more carefully", "Double-checking your answers", "Spreading your time across all questions")
		case b.ElapsedSeconds > slowFinishSeconds:
			r.line("**Speed:** you took your time but need to work faster:")
			r.bullets("Practice with time constraints", "Learn to recognize question patterns quickly", "Don't overthink; trust your first instinct")
		}
	case model.ResultReview:
		r.line("**You're on the right track!** Here's how to push to the next level:")
		r.bullets(
			"**Build on strengths**: identify what you did well and expand on it",
			"**Address weaknesses**: focus on the areas where you lost points",
			"**Advanced practice**: move to more challenging problems",
			"**Interview prep**: practice explaining your thought process",
		)
	default:
		r.line("**Excellent work!** To maintain and build on your success:")
		r.bullets(
			"**Stay current**: keep up with the latest trends in your field",
			"**Advanced topics**: explore more complex concepts",
			"**Leadership skills**: develop soft skills for senior roles",
			"**Mentoring**: help others learn and grow",
		)
	}

	r.line("**Recommended resources:**")
	r.bullets("LeetCode for coding practice", "HackerRank for algorithm challenges", "Coursera or Udemy for structured learning", "Video channels for your technology stack")
	r.line("Would you like me to elaborate on any of these areas or help you create a study plan?")
	return r.String()
}

func career(b Brief) string {
	var r reply
	r.line("Based on your %s assessment score, here's career guidance:\n", pct(b.Score))

	switch b.Status {
	case model.ResultPass:
		r.line("**You're ready for the next level!**")
		r.bullets(
			"**Senior roles**: you can confidently apply for mid to senior positions",
			"**Technical leadership**: consider roles that involve mentoring others",
			"**Specialization**: deepen your expertise in your chosen technology",
			"**Salary negotiation**: your skills justify competitive compensation",
		)
	case model.ResultReview:
		r.line("**You're competitive for many roles!**")
		r.bullets(
			"**Mid-level positions**: target roles that match your current skill level",
			"**Growth opportunities**: look for companies that invest in employee development",
			"**Skill building**: focus on 2-3 key areas to become expert-level",
			"**Networking**: connect with professionals in your field",
		)
	default:
		r.line("**Focus on skill development first**")
		r.bullets(
			"**Entry-level roles**: target junior positions to build experience",
			"**Internships**: consider internships or apprenticeships",
			"**Freelancing**: take on small projects to build a portfolio",
			"**Certifications**: get industry-recognized certifications",
		)
	}

	r.line("**Career path recommendations:**")
	r.bullets(
		"**Software development**: build full-stack applications",
		"**Data analytics**: learn SQL, Python and visualization tools",
		"**Quality assurance**: master testing frameworks and automation",
		"**Salesforce/Cloud**: get certified in cloud platforms",
	)
	r.line("What specific career path interests you most? I can provide more targeted advice!")
	return r.String()
}

func nextSteps(b Brief) string {
	var r reply
	r.line("Here are your recommended next steps based on your %s score:\n", pct(b.Score))

	switch b.Status {
	case model.ResultPass:
		r.line("**Immediate actions:**")
		r.bullets(
			"**Prepare for technical interviews**: practice coding challenges",
			"**Update your resume**: highlight your strong assessment performance",
			"**Research companies**: look for roles that match your skills",
			"**Network actively**: connect with professionals in your field",
		)
		r.line("**This week:**")
		r.bullets("Apply to 5-10 relevant positions", "Practice explaining your technical decisions", "Prepare questions to ask interviewers")
	case model.ResultReview:
		r.line("**Focus on strengthening:**")
		r.bullets(
			"**Practice more assessments**: take similar tests to improve",
			"**Study weak areas**: identify and work on knowledge gaps",
			"**Build projects**: create a portfolio to showcase skills",
			"**Get feedback**: ask mentors or peers to review your work",
		)
		r.line("**Next 2 weeks:**")
		r.bullets("Take 3-5 practice assessments", "Complete 2-3 coding projects", "Retake this assessment when ready")
	default:
		r.line("**Learning-focused approach:**")
		r.bullets(
			"**Structured learning**: follow a curriculum in your technology track",
			"**Daily practice**: spend 1-2 hours daily on skill building",
			"**Find a mentor**: connect with experienced professionals",
			"**Join communities**: participate in online coding communities",
		)
		r.line("**Next 6 weeks:**")
		r.bullets("Complete a comprehensive course in your field", "Build 3-5 portfolio projects", "Practice coding problems daily", "Retake the assessment after 6 weeks")
	}

	r.line("**Reassessment timeline:**")
	if b.Status == model.ResultReject {
		r.line("• **6 weeks**: minimum time before retaking")
		r.line("• **Focus on improvement**: use this time to strengthen skills")
	} else {
		r.line("• **Anytime**: you can retake to improve your score")
		r.line("• **Track progress**: monitor your improvement over time")
	}
	return r.String()
}

func performance(b Brief) string {
	var r reply
	r.line("**Your performance analysis:**\n")
	r.line("**Score:** %s", pct(b.Score))
	r.line("**Status:** %s", strings.ToUpper(string(b.Status)))
	r.line("**Time taken:** %d minutes %d seconds\n", b.ElapsedSeconds/60, b.ElapsedSeconds%60)

	switch {
	case b.Score >= 80:
		r.line("**Outstanding performance!**")
		r.bullets("You demonstrated strong knowledge across all areas", "Your problem-solving skills are well-developed", "You're ready for challenging technical roles")
	case b.Score >= 70:
		r.line("**Good performance!**")
		r.bullets("You showed solid understanding of core concepts", "There's room for improvement in some areas", "You're competitive for many positions")
	case b.Score >= 50:
		r.line("**Developing skills**")
		r.bullets("You have a foundation but need more practice", "Focus on strengthening fundamentals", "Consider additional training or courses")
	default:
		r.line("**Needs improvement**")
		r.bullets("Significant gaps in knowledge or skills", "Focus on basic concepts first", "Consider starting with beginner-level courses")
	}

	switch {
	case b.ElapsedSeconds < quickFinishSeconds:
		r.line("**Time management:** you finished quickly, which suggests either:")
		r.bullets("Strong confidence in your answers (good!)", "Rushing through questions (could improve accuracy)")
	case b.ElapsedSeconds > slowFinishSeconds:
		r.line("**Time management:** you took your time, which suggests:")
		r.bullets("Careful consideration of each answer (good!)", "A need to work on speed and efficiency")
	default:
		r.line("**Time management:** good balance between speed and accuracy!\n")
	}

	r.line("**Key takeaways:**")
	switch b.Status {
	case model.ResultPass:
		r.line("• You're well-prepared for technical interviews")
		r.line("• Continue building on your strengths")
		r.line("• Consider mentoring others")
	case model.ResultReview:
		r.line("• You're close to passing, keep practicing")
		r.line("• Focus on your weaker areas")
		r.line("• You're competitive for many roles")
	default:
		r.line("• Use this as a learning opportunity")
		r.line("• Focus on systematic skill building")
		r.line("• Don't give up; improvement is always possible")
	}
	return r.String()
}

func general(b Brief, message string) string {
	var r reply
	r.line("I understand you're asking about: '%s'\n", message)
	r.line("Based on your %s assessment score and %s status, here's my advice:\n", pct(b.Score), b.Status)

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "salary") || strings.Contains(lower, "pay"):
		r.line("**Salary guidance:**")
		if b.Status == model.ResultPass {
			r.bullets("You can confidently negotiate competitive salaries", "Research market rates for your technology stack", "Highlight your strong assessment performance")
		} else {
			r.bullets("Focus on skill building first, then salary discussions", "Entry-level positions typically have lower starting salaries", "Salary will increase as your skills improve")
		}
	case strings.Contains(lower, "interview"):
		r.line("**Interview preparation:**")
		r.bullets("Practice explaining your thought process clearly", "Prepare examples of your work and projects", "Research the company and role thoroughly", "Practice common technical interview questions")
	case strings.Contains(lower, "skills") || strings.Contains(lower, "learn"):
		r.line("**Skill development:**")
		r.bullets("Focus on your chosen technology track", "Practice coding problems regularly", "Build real-world projects", "Join online communities and forums")
	default:
		r.line("**General guidance:**")
		r.bullets("Your assessment results show your current skill level", "Focus on continuous learning and improvement", "Don't be discouraged by setbacks; they're learning opportunities", "Set realistic goals and track your progress")
	}

	r.line("Is there a specific area you'd like me to elaborate on?")
	return r.String()
}
