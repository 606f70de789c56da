package assistant

import "strings"

// emergencyKeywords win over every topic below.
var emergencyKeywords = []string{"emergency", "danger", "help", "sos", "attack", "threat", "unsafe", "scared", "fear"}

type topic struct {
	name     string
	keywords []string
}

// topics are matched in this order; the first hit decides the canned answer.
var topics = []topic{
	{"safety", []string{"safety", "safe", "protect", "security", "secure", "dangerous", "unsafe"}},
	{"self defense", []string{"self defense", "self-defense", "defend", "fight", "protect", "martial arts", "attack"}},
	{"health", []string{"health", "healthy", "wellness", "medical", "doctor", "exercise", "diet", "sick", "pain"}},
	{"confidence", []string{"confidence", "confident", "self-esteem", "self worth", "empowerment", "shy", "nervous"}},
	{"mental", []string{"mental health", "mental", "anxiety", "depression", "stress", "therapy", "sad", "worried"}},
	{"legal", []string{"legal", "rights", "law", "lawyer", "court", "harassment", "discrimination", "abuse"}},
	{"transport", []string{"transport", "bus", "train", "metro", "travel", "commute", "public transport", "traveling"}},
	{"relationship", []string{"relationship", "dating", "marriage", "partner", "boyfriend", "girlfriend", "love", "breakup"}},
	{"career", []string{"career", "job", "work", "profession", "business", "employment", "salary", "promotion"}},
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// FallbackTopic returns the corpus key chosen for question, or "" for the
// generic answer.
func FallbackTopic(question string) string {
	q := strings.ToLower(question)
	if containsAny(q, emergencyKeywords) {
		return "emergency"
	}
	for _, t := range topics {
		if containsAny(q, t.keywords) {
			return t.name
		}
	}
	return ""
}

// FallbackResponse is the canned markdown answer used when the model is
// unavailable. The same question always yields the same text.
func FallbackResponse(question string) string {
	if text, ok := fallbackCorpus[FallbackTopic(question)]; ok {
		return text
	}
	return genericFallback
}

const genericFallback = `I'm here to help you with any questions or concerns you might have! Whether it's about safety, health, relationships, career, or anything else, I'm ready to provide detailed, supportive guidance. Please feel free to ask me anything - no question is too big or too small. 💪

**Some topics I can help with:**
• Safety and self-defense
• Physical and mental health
• Relationships and boundaries
• Career development
• Legal rights and resources
• Personal growth and confidence
• Emergency procedures
• And much more!`

// ErrorResponse is returned when even the fallback path breaks.
const ErrorResponse = "I'm sorry, I'm experiencing some technical difficulties right now. Please try again in a moment, or feel free to ask me anything about safety, health, relationships, or any other topic I can help you with! 💪"

var fallbackCorpus = map[string]string{
	"emergency": `🚨 **EMERGENCY RESPONSE** 🚨

If you're in immediate danger:

1. **Call 100 immediately** - Police emergency number
2. **Use the SOS button** in this app to alert your emergency contacts
3. **Find a safe location** - Go to a well-lit, public area
4. **Stay visible** - Make yourself seen by others
5. **Trust your instincts** - If something feels wrong, act on it

**Remember**: Your safety is the absolute priority. Don't hesitate to call for help.

💪 You're stronger than you think, and help is always available.`,

	"safety": `🛡️ **COMPREHENSIVE SAFETY GUIDELINES** 🛡️

**Daily Safety Practices:**
• Trust your instincts - if something feels wrong, it probably is
• Stay aware of your surroundings at all times
• Keep your phone charged and easily accessible
• Share your location with trusted contacts when traveling
• Carry a personal safety alarm or whistle
• Learn basic self-defense techniques

**Technology Safety:**
• Use location-sharing apps with trusted friends
• Keep emergency contacts updated
• Consider safety apps like HerShield
• Be cautious with social media location sharing

**Mental Safety:**
• Build confidence through self-care
• Practice situational awareness
• Develop a safety mindset
• Trust your judgment

💪 Remember: You have the right to feel safe and secure.`,

	"self defense": `🥋 **SELF-DEFENSE COMPREHENSIVE GUIDE** 🥋

**Mental Preparation:**
• Develop situational awareness
• Trust your instincts
• Stay calm under pressure
• Be mentally prepared to defend yourself

**Basic Techniques:**
• **Voice as weapon**: Yell 'FIRE!' to attract attention
• **Target vulnerable areas**: Eyes, nose, throat, groin
• **Use your body**: Elbows, knees, head for striking
• **Create distance**: Push, kick, or run when possible

**Prevention Strategies:**
• Avoid isolated areas
• Walk with confidence
• Keep hands free and ready
• Learn pressure points
• Practice basic moves regularly

**Training Recommendations:**
• Take a self-defense class
• Practice with a partner
• Learn martial arts basics
• Attend women's safety workshops

💪 Knowledge is power - the more you know, the safer you are!`,

	"health": `💪 **WOMEN'S HEALTH & WELLNESS GUIDE** 💪

**Physical Health:**
• Regular health checkups and screenings
• Balanced nutrition with adequate vitamins
• Regular exercise (30+ minutes daily)
• Adequate sleep (7-9 hours)
• Stay hydrated (8+ glasses of water)

**Mental Health:**
• Practice mindfulness and meditation
• Maintain social connections
• Seek professional help when needed
• Practice stress management techniques
• Set healthy boundaries

**Preventive Care:**
• Annual gynecological exams
• Breast self-examinations
• Bone density screenings
• Mental health check-ins
• Regular dental care

**Lifestyle Tips:**
• Limit alcohol and avoid smoking
• Practice safe sex
• Manage stress effectively
• Prioritize self-care
• Build a support network

💪 Your health is your foundation - invest in it daily!`,

	"confidence": `💎 **BUILDING UNSTOPPABLE CONFIDENCE** 💎

**Self-Care Foundation:**
• Practice daily self-love and acceptance
• Celebrate small wins and achievements
• Take care of your physical appearance
• Maintain good posture and body language

**Mental Strength:**
• Challenge negative self-talk
• Practice positive affirmations
• Set and achieve small goals
• Learn from failures and setbacks
• Develop a growth mindset

**Social Confidence:**
• Practice speaking up in safe environments
• Set and maintain healthy boundaries
• Surround yourself with supportive people
• Learn to say 'no' without guilt
• Express your opinions respectfully

**Professional Confidence:**
• Develop your skills and expertise
• Take on new challenges
• Advocate for yourself at work
• Build a professional network
• Ask for what you deserve

**Daily Practices:**
• Power posing for 2 minutes daily
• Gratitude journaling
• Visualization exercises
• Positive self-talk
• Regular exercise

💎 Confidence is a skill you can develop - start today!`,

	"mental": `🧠 **MENTAL HEALTH & WELLNESS COMPREHENSIVE GUIDE** 🧠

**Understanding Mental Health:**
• Mental health is as important as physical health
• It's okay to not be okay sometimes
• Seeking help is a sign of strength, not weakness
• Everyone experiences mental health challenges

**Daily Wellness Practices:**
• **Mindfulness**: Practice meditation or deep breathing
• **Gratitude**: Keep a gratitude journal
• **Movement**: Exercise releases endorphins
• **Connection**: Maintain meaningful relationships
• **Sleep**: Prioritize quality sleep
• **Nutrition**: Eat brain-healthy foods

**Stress Management:**
• Identify your stress triggers
• Practice time management
• Learn to delegate tasks
• Take regular breaks
• Use relaxation techniques
• Set realistic expectations

**When to Seek Help:**
• Persistent sadness or anxiety
• Changes in sleep or appetite
• Difficulty concentrating
• Withdrawal from activities
• Thoughts of self-harm
• Feeling overwhelmed

**Professional Support:**
• Therapists and counselors
• Psychiatrists for medication
• Support groups
• Crisis hotlines
• Online therapy platforms

🧠 Remember: Your mental health matters, and you deserve support!`,

	"legal": `⚖️ **WOMEN'S LEGAL RIGHTS & RESOURCES** ⚖️

**Key Legal Protections in India:**
• **Protection of Women from Domestic Violence Act, 2005**
• **Sexual Harassment of Women at Workplace Act, 2013**
• **Maternity Benefit Act, 1961**
• **Equal Remuneration Act, 1976**
• **Dowry Prohibition Act, 1961**

**Your Rights Include:**
• Right to live free from violence and harassment
• Right to equal pay for equal work
• Right to maternity benefits
• Right to file complaints without fear
• Right to legal aid and support

**Emergency Contacts:**
• **Women Helpline**: 1091
• **Domestic Violence Helpline**: 181
• **Police Emergency**: 100
• **Child Helpline**: 1098

**Legal Resources:**
• National Commission for Women
• State Women Commissions
• Legal Aid Services
• Women's Rights Organizations
• Pro Bono Legal Services

**Steps to Take:**
• Document incidents with dates and details
• Keep evidence (photos, messages, medical reports)
• File complaints with appropriate authorities
• Seek legal counsel when needed
• Connect with support groups

⚖️ Knowledge of your rights is your first line of defense!`,

	"transport": `🚌 **PUBLIC TRANSPORT SAFETY COMPREHENSIVE GUIDE** 🚌

**Before Traveling:**
• Plan your route in advance
• Share your travel plans with trusted contacts
• Keep emergency contacts easily accessible
• Charge your phone fully
• Carry a personal safety alarm

**While Traveling:**
• Stay alert and aware of surroundings
• Keep belongings close and secure
• Sit near other women when possible
• Avoid isolated areas of transport
• Trust your instincts about people

**Safety Strategies:**
• **Bus Safety**: Sit near the driver or conductor
• **Train Safety**: Choose women's compartments when available
• **Metro Safety**: Stay in well-lit areas
• **Auto/Taxi Safety**: Share ride details with contacts
• **Walking**: Stay in well-lit, populated areas

**Technology Safety:**
• Use ride-sharing apps with safety features
• Share live location with trusted contacts
• Keep emergency apps ready
• Use women-only transport options when available

**Emergency Response:**
• Know emergency numbers by heart
• Use panic buttons on transport apps
• Alert authorities if you feel unsafe
• Exit at the next stop if uncomfortable
• Call for help immediately if threatened

🚌 Stay safe, stay alert, and trust your instincts!`,

	"relationship": `💕 **HEALTHY RELATIONSHIPS & BOUNDARIES** 💕

**Building Healthy Relationships:**
• **Communication**: Open, honest, and respectful dialogue
• **Trust**: Foundation of any strong relationship
• **Respect**: Mutual respect for boundaries and feelings
• **Support**: Emotional and practical support for each other
• **Equality**: Balanced power dynamics

**Setting Boundaries:**
• **Identify your limits**: Know what you're comfortable with
• **Communicate clearly**: Express boundaries respectfully
• **Be consistent**: Maintain boundaries consistently
• **Respect others**: Honor others' boundaries too
• **Self-care**: Prioritize your well-being

**Red Flags to Watch For:**
• Controlling behavior or jealousy
• Disrespect for your boundaries
• Emotional or physical abuse
• Isolation from friends and family
• Financial control or manipulation
• Gaslighting or manipulation

**Building Self-Worth:**
• Practice self-love and acceptance
• Develop independence and interests
• Maintain your own friendships
• Pursue your goals and dreams
• Don't compromise your values

**Seeking Help:**
• Talk to trusted friends or family
• Consider professional counseling
• Contact domestic violence hotlines
• Join support groups
• Prioritize your safety

💕 You deserve relationships that lift you up, not bring you down!`,

	"career": `💼 **WOMEN'S CAREER DEVELOPMENT & EMPOWERMENT** 💼

**Career Planning:**
• **Self-Assessment**: Identify your strengths and interests
• **Goal Setting**: Set clear, achievable career goals
• **Skill Development**: Continuously upgrade your skills
• **Networking**: Build professional relationships
• **Mentorship**: Seek guidance from experienced professionals

**Overcoming Challenges:**
• **Gender Bias**: Address bias professionally and assertively
• **Work-Life Balance**: Set boundaries and prioritize effectively
• **Imposter Syndrome**: Recognize your achievements and worth
• **Salary Negotiation**: Research and advocate for fair compensation
• **Leadership**: Develop leadership skills and confidence

**Professional Development:**
• **Continuous Learning**: Stay updated with industry trends
• **Certifications**: Pursue relevant certifications
• **Public Speaking**: Develop communication skills
• **Leadership Training**: Take on leadership opportunities
• **Mentoring Others**: Share your knowledge and experience

**Workplace Rights:**
• **Equal Pay**: Advocate for fair compensation
• **Safe Environment**: Report harassment and discrimination
• **Maternity Benefits**: Know your rights and benefits
• **Flexible Work**: Request reasonable accommodations
• **Professional Growth**: Seek advancement opportunities

**Building Confidence:**
• **Celebrate Achievements**: Acknowledge your successes
• **Take Risks**: Step out of your comfort zone
• **Learn from Failures**: View setbacks as learning opportunities
• **Self-Advocacy**: Speak up for yourself professionally
• **Support Network**: Build relationships with other professionals

💼 Your career is your journey - own it with confidence and purpose!`,
}
